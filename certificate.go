package dcpkdm

import (
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/asn1"
	"encoding/base64"
	"encoding/pem"
	"strings"
)

// Certificate wraps a single parsed X.509 certificate, caching its RSA public
// key and canonical PEM form. It is immutable once constructed.
type Certificate struct {
	cert        *x509.Certificate
	canonicalPEM string
}

// ParseCertificate parses a single PEM-encoded certificate. The input is
// re-wrapped to strict 64-column base64 lines between BEGIN/END markers
// before decoding, matching the source library's normalisation so that
// certificates collected from varied tools (different line lengths, CRLF)
// compare equal once canonicalised. Anything other than whitespace after the
// END marker is rejected as unexpected trailing data; bundles of several
// certificates are read with FromPEMBundle instead.
func ParseCertificate(pemText string) (Certificate, error) {
	cert, residual, err := parseCertificateWithResidual(pemText)
	if err != nil {
		return Certificate{}, err
	}
	if strings.TrimSpace(residual) != "" {
		return Certificate{}, newMiscError("unexpected trailing data after certificate", nil)
	}
	return cert, nil
}

func parseCertificateWithResidual(pemText string) (Certificate, string, error) {
	const begin = "-----BEGIN CERTIFICATE-----"
	const end = "-----END CERTIFICATE-----"

	beginIdx := strings.Index(pemText, begin)
	if beginIdx < 0 {
		return Certificate{}, "", newMiscError("missing BEGIN CERTIFICATE marker", nil)
	}
	endIdx := strings.Index(pemText[beginIdx:], end)
	if endIdx < 0 {
		return Certificate{}, "", newMiscError("missing END CERTIFICATE marker", nil)
	}
	endIdx += beginIdx

	body := pemText[beginIdx+len(begin) : endIdx]
	residual := pemText[endIdx+len(end):]

	body = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, body)

	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return Certificate{}, "", newMiscError("could not read X509 certificate", err)
	}

	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return Certificate{}, "", newMiscError("could not read X509 certificate", err)
	}

	return Certificate{cert: cert, canonicalPEM: rewrapPEM(raw)}, residual, nil
}

// rewrapPEM re-encodes DER bytes as PEM with strict 64-column base64 lines.
func rewrapPEM(der []byte) string {
	b := &pem.Block{Type: "CERTIFICATE", Bytes: der}
	return string(pem.EncodeToMemory(b))
}

// ToPEM returns the canonical PEM form. When includeMarkers is false, the
// leading/trailing marker lines are stripped but internal base64 newlines
// remain (used when embedding a certificate body inside X509Certificate or
// X509Data XML elements, which want raw base64 without markers).
func (c Certificate) ToPEM(includeMarkers bool) string {
	if includeMarkers {
		return c.canonicalPEM
	}
	lines := strings.Split(strings.TrimRight(c.canonicalPEM, "\n"), "\n")
	if len(lines) >= 2 {
		lines = lines[1 : len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// Equal compares two certificates byte-for-byte over their canonical PEM.
func (c Certificate) Equal(other Certificate) bool {
	return c.canonicalPEM == other.canonicalPEM
}

// Issuer renders the issuer DN in RFC 2253 form (via crypto/x509/pkix's
// RDNSequence renderer, which already produces the single-line, escaped,
// most-specific-first form the wire format requires).
func (c Certificate) Issuer() string {
	return c.cert.Issuer.String()
}

// Subject renders the subject DN in RFC 2253 form.
func (c Certificate) Subject() string {
	return c.cert.Subject.String()
}

// SubjectCommonName returns the subject's CN attribute.
func (c Certificate) SubjectCommonName() string {
	return c.cert.Subject.CommonName
}

// SubjectOrganizationName returns the subject's O attribute, if present.
func (c Certificate) SubjectOrganizationName() string {
	if len(c.cert.Subject.Organization) == 0 {
		return ""
	}
	return c.cert.Subject.Organization[0]
}

// SubjectOrganizationalUnitName returns the subject's OU attribute, if present.
func (c Certificate) SubjectOrganizationalUnitName() string {
	if len(c.cert.Subject.OrganizationalUnit) == 0 {
		return ""
	}
	return c.cert.Subject.OrganizationalUnit[0]
}

// Serial returns the certificate's serial number as a decimal string.
func (c Certificate) Serial() string {
	return c.cert.SerialNumber.String()
}

// Thumbprint returns base64(SHA-1(TBSCertificate DER)), the short identifier
// used throughout the KDM (ContentAuthenticator, device thumbprints).
func (c Certificate) Thumbprint() string {
	sum := c.rawThumbprint()
	return base64.StdEncoding.EncodeToString(sum[:])
}

// rawThumbprint returns the raw, unencoded SHA-1 digest of the TBS
// certificate, used by the KeyRecord codec's signer_thumbprint field.
func (c Certificate) rawThumbprint() [20]byte {
	return sha1.Sum(c.cert.RawTBSCertificate)
}

// NotBefore returns the certificate's validity start, in UTC, parsed
// directly from the TBSCertificate's raw UTCTime/GeneralizedTime field
// rather than taken from x509.Certificate's already-parsed value.
func (c Certificate) NotBefore() LocalTime {
	notBefore, _, err := validityFromRaw(c.cert.RawTBSCertificate)
	if err != nil {
		return fromGoTime(c.cert.NotBefore.UTC())
	}
	return notBefore
}

// NotAfter returns the certificate's validity end, in UTC.
func (c Certificate) NotAfter() LocalTime {
	_, notAfter, err := validityFromRaw(c.cert.RawTBSCertificate)
	if err != nil {
		return fromGoTime(c.cert.NotAfter.UTC())
	}
	return notAfter
}

// asn1Validity mirrors the ASN.1 Validity SEQUENCE { notBefore, notAfter },
// captured as raw tagged values so the UTCTime/GeneralizedTime content octets
// can be handed to parseASN1Time untouched.
type asn1Validity struct {
	NotBefore asn1.RawValue
	NotAfter  asn1.RawValue
}

// asn1TBSCertificate models just enough of the TBSCertificate SEQUENCE to
// reach Validity: Version/SerialNumber/SignatureAlgorithm/Issuer are skipped
// over as opaque raw values, matching their order per RFC 5280 §4.1.
type asn1TBSCertificate struct {
	Raw                asn1.RawContent
	Version            asn1.RawValue `asn1:"optional,explicit,tag:0"`
	SerialNumber       asn1.RawValue
	SignatureAlgorithm asn1.RawValue
	Issuer             asn1.RawValue
	Validity           asn1Validity
}

// validityFromRaw extracts and parses the not-before/not-after pair from a
// raw TBSCertificate, using parseASN1Time on each field's content octets.
func validityFromRaw(raw []byte) (notBefore, notAfter LocalTime, err error) {
	var tbs asn1TBSCertificate
	if _, err := asn1.Unmarshal(raw, &tbs); err != nil {
		return LocalTime{}, LocalTime{}, newMiscError("could not parse TBSCertificate validity", err)
	}
	notBefore, err = parseASN1Time(string(tbs.Validity.NotBefore.Bytes))
	if err != nil {
		return LocalTime{}, LocalTime{}, err
	}
	notAfter, err = parseASN1Time(string(tbs.Validity.NotAfter.Bytes))
	if err != nil {
		return LocalTime{}, LocalTime{}, err
	}
	return notBefore, notAfter, nil
}

// PublicKey returns the certificate's RSA public key. The KDM core only
// ever deals in RSA signer/recipient certificates (RSA-OAEP key wrapping,
// RSA-SHA1/SHA256 signatures), so a non-RSA key is reported as an error
// rather than surfaced as a generic crypto.PublicKey.
func (c Certificate) PublicKey() (*rsa.PublicKey, error) {
	pub, ok := c.cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, newMiscError("certificate public key is not RSA", nil)
	}
	return pub, nil
}

// HasUTF8Strings reports whether any subject RDN attribute is DER-encoded
// as a UTF8String, rather than PrintableString or another legacy ASN.1
// string type. SMPTE-conformant certificates are expected to use UTF8String
// throughout; Interop-era certificates frequently do not.
func (c Certificate) HasUTF8Strings() bool {
	return rdnSequenceHasUTF8Strings(c.cert.RawSubject)
}

// rawCertificate exposes the underlying parsed certificate for package-
// internal use (chain validation, signature building).
func (c Certificate) rawCertificate() *x509.Certificate {
	return c.cert
}

const asn1TagUTF8String = 12

// rdnSequenceHasUTF8Strings walks the DER RDNSequence looking for any
// AttributeTypeAndValue whose value is tagged UTF8String (universal tag 12).
func rdnSequenceHasUTF8Strings(raw []byte) bool {
	var rdnSeq []asn1.RawValue
	if _, err := asn1.Unmarshal(raw, &rdnSeq); err != nil {
		return false
	}
	for _, rdn := range rdnSeq {
		// rdn.Bytes is the content of the SET: one or more
		// AttributeTypeAndValue SEQUENCEs laid end to end.
		rest := rdn.Bytes
		for len(rest) > 0 {
			var atv struct {
				Type  asn1.ObjectIdentifier
				Value asn1.RawValue
			}
			var err error
			if rest, err = asn1.Unmarshal(rest, &atv); err != nil {
				break
			}
			if atv.Value.Tag == asn1TagUTF8String {
				return true
			}
		}
	}
	return false
}

// equalRSAPublicKeys reports whether a and b are the same RSA public key,
// used when matching a leaf certificate against the private key supplied
// for signing or decryption.
func equalRSAPublicKeys(a, b *rsa.PublicKey) bool {
	if a == nil || b == nil {
		return false
	}
	return a.N.Cmp(b.N) == 0 && a.E == b.E
}
