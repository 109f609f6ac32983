package dcpkdm

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	goxml "github.com/arturoeanton/go-xml"
)

const (
	messageTypeURI          = "http://www.smpte-ra.org/430-1/2006/KDM#kdm-key-type"
	keyTypeScopeDolby       = "http://www.dolby.com/cp850/2012/KDM#kdm-key-type"
	keyTypeScopeSMPTE       = "http://www.smpte-ra.org/430-1/2006/KDM#kdm-key-type"
	markPictureDisableURI   = "http://www.smpte-ra.org/430-1/2006/KDM#mrkflg-picture-disable"
	markAudioDisableURI     = "http://www.smpte-ra.org/430-1/2006/KDM#mrkflg-audio-disable"
	markAudioAboveChanFmt   = "http://www.smpte-ra.org/430-1/2006/KDM#mrkflg-audio-disable-above-channel-%d"
	oaepAlgorithmURI        = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"
	oaepDigestSHA1URI       = "http://www.w3.org/2000/09/xmldsig#sha1"
	envelopedSignatureURI   = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	c14nURI                 = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	c14nWithCommentsURI     = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315#WithComments"
	sigMethodRSASHA1URI     = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	sigMethodRSASHA256URI   = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	digestMethodSHA1URI     = "http://www.w3.org/2000/09/xmldsig#sha1"
	digestMethodSHA256URI   = "http://www.w3.org/2001/04/xmlenc#sha256"
	idAuthenticatedPublic   = "ID_AuthenticatedPublic"
	idAuthenticatedPrivate  = "ID_AuthenticatedPrivate"
	dsigNS                  = "http://www.w3.org/2000/09/xmldsig#"
	xmlencNS                = "http://www.w3.org/2001/04/xmlenc#"
	kdmRequiredExtensionsNS = "http://www.smpte-ra.org/schemas/430-1/2006/KDM"
)

// authorizedDeviceInfo mirrors AuthorizedDeviceInfo: the set of media-block
// certificate thumbprints a recipient's projector is authorised to present
// to, plus a human-readable description of that device list.
type authorizedDeviceInfo struct {
	DeviceListIdentifier   string
	DeviceListDescription  string
	CertificateThumbprints []string
}

// typedKeyID is one entry of KeyIdList: a key's type tag, the scope URI that
// disambiguates MDEK (Dolby) from every other tag (SMPTE), and the key's id.
type typedKeyID struct {
	KeyType string
	Scope   string
	KeyID   string
}

// EncryptedKDM is the wire model of a DCinemaSecurityMessage: the encrypted,
// signed form of a DecryptedKDM. It is immutable after construction, whether
// by Parse or by DecryptedKDM.Encrypt.
type EncryptedKDM struct {
	MessageID                        string
	AnnotationText                   string
	IssueDate                        string
	SignerIssuer                     string
	SignerSerial                     string
	RecipientIssuer                  string
	RecipientSerial                  string
	RecipientSubject                 string
	CPLID                            string
	ContentAuthenticator             string
	ContentTitleText                 string
	NotValidBefore                   LocalTime
	NotValidAfter                    LocalTime
	DeviceInfo                       *authorizedDeviceInfo
	KeyIDs                           []typedKeyID
	PictureMarkingDisabled           bool
	AudioMarkingDisabledAboveChannel *int
	EncryptedKeys                    []string
	Standard                         Standard
	SignerChain                      CertificateChain

	signatureValue string
}

// ID returns the KDM's MessageId in bare (non-urn) form.
func (ek EncryptedKDM) ID() string { return ek.MessageID }

// RecipientX509SubjectName returns the recipient's subject DN as carried on
// the wire.
func (ek EncryptedKDM) RecipientX509SubjectName() string { return ek.RecipientSubject }

// SignerCertificateChain returns the signer chain recovered from KeyInfo/
// X509Data (leaf-to-root order as parsed; validation is the caller's job).
func (ek EncryptedKDM) SignerCertificateChain() CertificateChain { return ek.SignerChain }

// Keys returns the raw base64-encoded RSA ciphertexts, one per content key,
// in the order they appear in AuthenticatedPrivate.
func (ek EncryptedKDM) Keys() []string { return append([]string(nil), ek.EncryptedKeys...) }

func encodeB64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func decodeB64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// forensicMarkFlags renders the ForensicMarkFlag URI list for the disable
// flags in force. Absence of any flag (both false/nil) means the element is
// omitted entirely and both picture and audio marking are enabled on read.
func forensicMarkFlags(disablePicture bool, disableAudioAboveChannel *int) []string {
	var flags []string
	if disablePicture {
		flags = append(flags, markPictureDisableURI)
	}
	if disableAudioAboveChannel != nil {
		if *disableAudioAboveChannel == 0 {
			flags = append(flags, markAudioDisableURI)
		} else {
			flags = append(flags, fmt.Sprintf(markAudioAboveChanFmt, *disableAudioAboveChannel))
		}
	}
	return flags
}

// sign computes the AuthenticatedPublic/AuthenticatedPrivate digests and the
// SignedInfo RSA signature, populating ek.signatureValue. It must run after
// every other field on ek has been set.
func (ek *EncryptedKDM) sign(signerKey *rsa.PrivateKey) error {
	authPublic, err := ek.buildAuthenticatedPublic()
	if err != nil {
		return err
	}
	authPrivate := ek.buildAuthenticatedPrivate()

	publicCanon, err := goxml.Canonicalize(authPublic)
	if err != nil {
		return newMiscError("failed to canonicalize AuthenticatedPublic", err)
	}
	privateCanon, err := goxml.Canonicalize(authPrivate)
	if err != nil {
		return newMiscError("failed to canonicalize AuthenticatedPrivate", err)
	}

	hashAlg, sigMethodURI, digestMethodURI, canonMethodURI := ek.algorithmSet()

	publicDigest := digest(hashAlg, publicCanon)
	privateDigest := digest(hashAlg, privateCanon)

	signedInfo := buildSignedInfo(canonMethodURI, sigMethodURI, digestMethodURI, publicDigest, privateDigest)
	signedInfoCanon, err := goxml.Canonicalize(signedInfo)
	if err != nil {
		return newMiscError("failed to canonicalize SignedInfo", err)
	}

	sigHash := digest(hashAlg, signedInfoCanon)
	sigBytes, err := rsa.SignPKCS1v15(rand.Reader, signerKey, hashAlg, sigHash)
	if err != nil {
		return newMiscError("RSA signing of SignedInfo failed", err)
	}

	ek.signatureValue = encodeB64(sigBytes)
	return nil
}

// buildSignedInfo builds the SignedInfo element exactly as it will appear
// once embedded under Signature in ToXML's output (same element names, same
// inherited xmldsig default namespace), so that canonicalizing this detached
// copy for signing and canonicalizing the embedded copy for verification
// produce identical bytes.
func buildSignedInfo(canonMethodURI, sigMethodURI, digestMethodURI string, publicDigest, privateDigest []byte) *goxml.OrderedMap {
	signedInfo := goxml.NewMap()
	signedInfo.Set("@xmlns", dsigNS)
	signedInfo.Set("CanonicalizationMethod/@Algorithm", canonMethodURI)
	signedInfo.Set("SignatureMethod/@Algorithm", sigMethodURI)

	refPublic := signedInfoReference(idAuthenticatedPublic, canonMethodURI, digestMethodURI, publicDigest)
	refPrivate := signedInfoReference(idAuthenticatedPrivate, canonMethodURI, digestMethodURI, privateDigest)

	signedInfo.Set("Reference", []*goxml.OrderedMap{refPublic, refPrivate})
	return signedInfo
}

// signedInfoReference builds one Reference entry: the enveloped-signature
// transform followed by canonicalisation, then the digest over the
// canonicalized target.
func signedInfoReference(id, canonMethodURI, digestMethodURI string, digestValue []byte) *goxml.OrderedMap {
	ref := goxml.NewMap()
	ref.Set("@URI", "#"+id)

	transforms := goxml.NewMap()
	enveloped := goxml.NewMap()
	enveloped.Set("@Algorithm", envelopedSignatureURI)
	canon := goxml.NewMap()
	canon.Set("@Algorithm", canonMethodURI)
	transforms.Set("Transform", []*goxml.OrderedMap{enveloped, canon})
	ref.Set("Transforms", transforms)

	ref.Set("DigestMethod/@Algorithm", digestMethodURI)
	ref.Set("DigestValue", encodeB64(digestValue))
	return ref
}

func (ek EncryptedKDM) algorithmSet() (hashAlg crypto.Hash, sigMethodURI, digestMethodURI, canonMethodURI string) {
	if ek.Standard == StandardSMPTE {
		return crypto.SHA256, sigMethodRSASHA256URI, digestMethodSHA256URI, c14nWithCommentsURI
	}
	return crypto.SHA1, sigMethodRSASHA1URI, digestMethodSHA1URI, c14nURI
}

func digest(alg crypto.Hash, data []byte) []byte {
	if alg == crypto.SHA256 {
		sum := sha256.Sum256(data)
		return sum[:]
	}
	sum := sha1.Sum(data)
	return sum[:]
}

func (ek EncryptedKDM) buildAuthenticatedPublic() (*goxml.OrderedMap, error) {
	root := goxml.NewMap()
	root.Set("@Id", idAuthenticatedPublic)
	root.Set("MessageId", withURN(ek.MessageID))
	root.Set("MessageType", messageTypeURI)
	if ek.AnnotationText != "" {
		root.Set("AnnotationText", ek.AnnotationText)
	}
	root.Set("IssueDate", ek.IssueDate)
	root.Set("Signer/ds:X509IssuerName", ek.SignerIssuer)
	root.Set("Signer/ds:X509SerialNumber", ek.SignerSerial)

	ext := goxml.NewMap()
	ext.Set("@xmlns", kdmRequiredExtensionsNS)
	ext.Set("Recipient/X509IssuerSerial/ds:X509IssuerName", ek.RecipientIssuer)
	ext.Set("Recipient/X509IssuerSerial/ds:X509SerialNumber", ek.RecipientSerial)
	ext.Set("Recipient/X509SubjectName", ek.RecipientSubject)
	ext.Set("CompositionPlaylistId", withURN(ek.CPLID))
	if ek.ContentAuthenticator != "" {
		ext.Set("ContentAuthenticator", ek.ContentAuthenticator)
	}
	ext.Set("ContentTitleText", ek.ContentTitleText)
	ext.Set("ContentKeysNotValidBefore", ek.NotValidBefore.String())
	ext.Set("ContentKeysNotValidAfter", ek.NotValidAfter.String())

	if ek.DeviceInfo != nil {
		ext.Set("AuthorizedDeviceInfo/DeviceListIdentifier", withURN(ek.DeviceInfo.DeviceListIdentifier))
		if ek.DeviceInfo.DeviceListDescription != "" {
			ext.Set("AuthorizedDeviceInfo/DeviceListDescription", ek.DeviceInfo.DeviceListDescription)
		}
		dl := goxml.NewMap()
		dl.Set("CertificateThumbprint", ek.DeviceInfo.CertificateThumbprints)
		ext.Set("AuthorizedDeviceInfo/DeviceList", dl)
	}

	keyIDList := goxml.NewMap()
	var typedKeyIDs []*goxml.OrderedMap
	for _, k := range ek.KeyIDs {
		tk := goxml.NewMap()
		keyType := goxml.NewMap()
		keyType.Set("@scope", k.Scope)
		keyType.Set("#text", k.KeyType)
		tk.Set("KeyType", keyType)
		tk.Set("KeyId", withURN(k.KeyID))
		typedKeyIDs = append(typedKeyIDs, tk)
	}
	keyIDList.Set("TypedKeyId", typedKeyIDs)
	ext.Set("KeyIdList", keyIDList)

	flags := forensicMarkFlags(ek.PictureMarkingDisabled, ek.AudioMarkingDisabledAboveChannel)
	if len(flags) > 0 {
		ext.Set("ForensicMarkFlagList/ForensicMarkFlag", flags)
	}

	root.Set("RequiredExtensions/KDMRequiredExtensions", ext)
	root.Set("NonCriticalExtensions", "")

	return root, nil
}

func (ek EncryptedKDM) buildAuthenticatedPrivate() *goxml.OrderedMap {
	root := goxml.NewMap()
	root.Set("@Id", idAuthenticatedPrivate)

	var keys []*goxml.OrderedMap
	for _, cipher := range ek.EncryptedKeys {
		ekMap := goxml.NewMap()
		ekMap.Set("enc:EncryptionMethod/@Algorithm", oaepAlgorithmURI)
		ekMap.Set("enc:EncryptionMethod/ds:DigestMethod/@Algorithm", oaepDigestSHA1URI)
		ekMap.Set("enc:CipherData/enc:CipherValue", cipher)
		keys = append(keys, ekMap)
	}
	root.Set("enc:EncryptedKey", keys)
	return root
}

// ToXML serialises ek as a complete DCinemaSecurityMessage document.
func (ek EncryptedKDM) ToXML() ([]byte, error) {
	if ek.signatureValue == "" {
		return nil, newMiscError("cannot serialise an EncryptedKDM that has not been signed", nil)
	}

	authPublic, err := ek.buildAuthenticatedPublic()
	if err != nil {
		return nil, err
	}
	authPrivate := ek.buildAuthenticatedPrivate()

	publicCanon, err := goxml.Canonicalize(authPublic)
	if err != nil {
		return nil, newMiscError("failed to canonicalize AuthenticatedPublic", err)
	}
	privateCanon, err := goxml.Canonicalize(authPrivate)
	if err != nil {
		return nil, newMiscError("failed to canonicalize AuthenticatedPrivate", err)
	}

	hashAlg, sigMethodURI, digestMethodURI, canonMethodURI := ek.algorithmSet()
	publicDigest := digest(hashAlg, publicCanon)
	privateDigest := digest(hashAlg, privateCanon)

	sig := goxml.NewMap()
	sig.Set("@xmlns", dsigNS)
	sig.Set("SignedInfo", buildSignedInfo(canonMethodURI, sigMethodURI, digestMethodURI, publicDigest, privateDigest))
	sig.Set("SignatureValue", ek.signatureValue)

	leafToRoot, err := ek.SignerChain.LeafToRoot()
	if err != nil {
		return nil, err
	}
	var x509Data []*goxml.OrderedMap
	for _, cert := range leafToRoot {
		xd := goxml.NewMap()
		xd.Set("X509IssuerSerial/X509IssuerName", cert.Issuer())
		xd.Set("X509IssuerSerial/X509SerialNumber", cert.Serial())
		xd.Set("X509Certificate", cert.ToPEM(false))
		x509Data = append(x509Data, xd)
	}
	sig.Set("KeyInfo/X509Data", x509Data)

	doc := goxml.NewMap()
	doc.Set("@xmlns", "http://www.smpte-ra.org/schemas/430-3/2006/ETM")
	doc.Set("@xmlns:ds", dsigNS)
	doc.Set("@xmlns:enc", xmlencNS)
	doc.Set("AuthenticatedPublic", authPublic)
	doc.Set("AuthenticatedPrivate", authPrivate)
	doc.Set("Signature", sig)

	wrapper := goxml.NewMap()
	wrapper.Set("DCinemaSecurityMessage", doc)

	out, err := goxml.Marshal(wrapper)
	if err != nil {
		return nil, newMiscError("failed to marshal DCinemaSecurityMessage", err)
	}
	return []byte(out), nil
}

// Parse decodes a DCinemaSecurityMessage document into an EncryptedKDM.
func Parse(xmlBytes []byte) (EncryptedKDM, error) {
	var msg wireMessage
	if err := xml.Unmarshal(xmlBytes, &msg); err != nil {
		return EncryptedKDM{}, newKDMFormatError("malformed DCinemaSecurityMessage XML", err)
	}

	pub := msg.AuthenticatedPublic
	ext := pub.RequiredExtensions.KDMRequiredExtensions

	if pub.MessageId == "" || ext.CompositionPlaylistId == "" {
		return EncryptedKDM{}, newKDMFormatError("missing required element in AuthenticatedPublic", nil)
	}

	notBefore, err := ParseLocalTime(ext.ContentKeysNotValidBefore)
	if err != nil {
		return EncryptedKDM{}, newKDMFormatError("malformed ContentKeysNotValidBefore", err)
	}
	notAfter, err := ParseLocalTime(ext.ContentKeysNotValidAfter)
	if err != nil {
		return EncryptedKDM{}, newKDMFormatError("malformed ContentKeysNotValidAfter", err)
	}

	messageID, err := parseUUID(pub.MessageId)
	if err != nil {
		return EncryptedKDM{}, newKDMFormatError("malformed MessageId", err)
	}
	cplID, err := parseUUID(ext.CompositionPlaylistId)
	if err != nil {
		return EncryptedKDM{}, newKDMFormatError("malformed CompositionPlaylistId", err)
	}

	ek := EncryptedKDM{
		MessageID:            messageID,
		AnnotationText:       pub.AnnotationText,
		IssueDate:            pub.IssueDate,
		SignerIssuer:         pub.Signer.X509IssuerName,
		SignerSerial:         pub.Signer.X509SerialNumber,
		RecipientIssuer:      ext.Recipient.X509IssuerSerial.X509IssuerName,
		RecipientSerial:      ext.Recipient.X509IssuerSerial.X509SerialNumber,
		RecipientSubject:     ext.Recipient.X509SubjectName,
		CPLID:                cplID,
		ContentAuthenticator: ext.ContentAuthenticator,
		ContentTitleText:     ext.ContentTitleText,
		NotValidBefore:       notBefore,
		NotValidAfter:        notAfter,
		signatureValue:       msg.Signature.SignatureValue,
	}

	if ext.AuthorizedDeviceInfo != nil {
		deviceListID, err := parseUUID(ext.AuthorizedDeviceInfo.DeviceListIdentifier)
		if err != nil {
			return EncryptedKDM{}, newKDMFormatError("malformed DeviceListIdentifier", err)
		}
		ek.DeviceInfo = &authorizedDeviceInfo{
			DeviceListIdentifier:   deviceListID,
			DeviceListDescription:  ext.AuthorizedDeviceInfo.DeviceListDescription,
			CertificateThumbprints: ext.AuthorizedDeviceInfo.DeviceList.CertificateThumbprint,
		}
	}

	for _, tk := range ext.KeyIdList.TypedKeyId {
		keyID, err := parseUUID(tk.KeyId)
		if err != nil {
			return EncryptedKDM{}, newKDMFormatError("malformed KeyId", err)
		}
		ek.KeyIDs = append(ek.KeyIDs, typedKeyID{
			KeyType: strings.TrimSpace(tk.KeyType.Value),
			Scope:   tk.KeyType.Scope,
			KeyID:   keyID,
		})
	}

	if ext.ForensicMarkFlagList != nil {
		for _, flag := range ext.ForensicMarkFlagList.ForensicMarkFlag {
			switch {
			case flag == markPictureDisableURI:
				ek.PictureMarkingDisabled = true
			case flag == markAudioDisableURI:
				zero := 0
				ek.AudioMarkingDisabledAboveChannel = &zero
			case strings.Contains(flag, "mrkflg-audio-disable-above-channel-"):
				n, err := audioChannelFromFlag(flag)
				if err != nil {
					return EncryptedKDM{}, newKDMFormatError("malformed ForensicMarkFlag "+flag, err)
				}
				ek.AudioMarkingDisabledAboveChannel = &n
			}
		}
	}

	for _, k := range msg.AuthenticatedPrivate.EncryptedKey {
		ek.EncryptedKeys = append(ek.EncryptedKeys, k.CipherData.CipherValue)
	}
	if len(ek.EncryptedKeys) != len(ek.KeyIDs) {
		return EncryptedKDM{}, newKDMFormatError(
			fmt.Sprintf("%d EncryptedKey entries but %d TypedKeyId entries", len(ek.EncryptedKeys), len(ek.KeyIDs)), nil)
	}

	switch msg.Signature.SignedInfo.SignatureMethod.Algorithm {
	case sigMethodRSASHA256URI:
		ek.Standard = StandardSMPTE
	default:
		ek.Standard = StandardInterop
	}

	if len(msg.Signature.KeyInfo.X509Data) > 0 {
		var bundle strings.Builder
		for _, xd := range msg.Signature.KeyInfo.X509Data {
			bundle.WriteString("-----BEGIN CERTIFICATE-----\n")
			bundle.WriteString(strings.TrimSpace(xd.X509Certificate))
			bundle.WriteString("\n-----END CERTIFICATE-----\n")
		}
		chain, err := FromPEMBundle(bundle.String())
		if err == nil {
			ek.SignerChain = chain
		}
	}

	return ek, nil
}

func audioChannelFromFlag(flag string) (int, error) {
	const prefix = "mrkflg-audio-disable-above-channel-"
	idx := strings.Index(flag, prefix)
	if idx < 0 {
		return 0, nil
	}
	return strconv.Atoi(flag[idx+len(prefix):])
}

// VerifySignature checks that the RSA signature over SignedInfo is valid
// under the signer chain's leaf public key (or, if trustRoots is supplied,
// under a leaf found within it), and that both Reference digests match a
// fresh recomputation. It is never called implicitly by Parse or Encrypt;
// callers gate acceptance explicitly.
func (ek EncryptedKDM) VerifySignature(trustRoots *CertificateChain) error {
	signer := ek.SignerChain
	if trustRoots != nil {
		signer = *trustRoots
	}
	leaf, err := signer.Leaf()
	if err != nil {
		return err
	}
	pub, err := leaf.PublicKey()
	if err != nil {
		return err
	}

	authPublic, err := ek.buildAuthenticatedPublic()
	if err != nil {
		return err
	}
	authPrivate := ek.buildAuthenticatedPrivate()

	publicCanon, err := goxml.Canonicalize(authPublic)
	if err != nil {
		return newMiscError("failed to canonicalize AuthenticatedPublic", err)
	}
	privateCanon, err := goxml.Canonicalize(authPrivate)
	if err != nil {
		return newMiscError("failed to canonicalize AuthenticatedPrivate", err)
	}

	hashAlg, sigMethodURI, digestMethodURI, canonMethodURI := ek.algorithmSet()
	publicDigest := digest(hashAlg, publicCanon)
	privateDigest := digest(hashAlg, privateCanon)

	signedInfo := buildSignedInfo(canonMethodURI, sigMethodURI, digestMethodURI, publicDigest, privateDigest)
	signedInfoCanon, err := goxml.Canonicalize(signedInfo)
	if err != nil {
		return newMiscError("failed to canonicalize SignedInfo", err)
	}

	sigBytes, err := decodeB64(ek.signatureValue)
	if err != nil {
		return newKDMFormatError("malformed SignatureValue base64", err)
	}

	sigHash := digest(hashAlg, signedInfoCanon)
	if err := rsa.VerifyPKCS1v15(pub, hashAlg, sigHash, sigBytes); err != nil {
		return newMiscError("signature verification failed", err)
	}
	return nil
}

// wire* types are the stdlib encoding/xml model used on the read path: the
// go-xml OrderedMap library used for writing has no exported unmarshal
// surface in the retrieved sources, and the KDM's multi-Reference
// SignedInfo and ID-addressed digests need exact element-by-element access
// that a generic ordered-map reader doesn't provide.
type wireMessage struct {
	XMLName              xml.Name        `xml:"DCinemaSecurityMessage"`
	AuthenticatedPublic  wireAuthPublic  `xml:"AuthenticatedPublic"`
	AuthenticatedPrivate wireAuthPrivate `xml:"AuthenticatedPrivate"`
	Signature            wireSignature   `xml:"Signature"`
}

type wireAuthPublic struct {
	MessageId          string                 `xml:"MessageId"`
	AnnotationText     string                 `xml:"AnnotationText"`
	IssueDate          string                 `xml:"IssueDate"`
	Signer             wireSigner             `xml:"Signer"`
	RequiredExtensions wireRequiredExtensions `xml:"RequiredExtensions"`
}

type wireSigner struct {
	X509IssuerName   string `xml:"X509IssuerName"`
	X509SerialNumber string `xml:"X509SerialNumber"`
}

type wireRequiredExtensions struct {
	KDMRequiredExtensions wireKDMRequiredExtensions `xml:"KDMRequiredExtensions"`
}

type wireKDMRequiredExtensions struct {
	Recipient                 wireRecipient             `xml:"Recipient"`
	CompositionPlaylistId     string                    `xml:"CompositionPlaylistId"`
	ContentAuthenticator      string                    `xml:"ContentAuthenticator"`
	ContentTitleText          string                    `xml:"ContentTitleText"`
	ContentKeysNotValidBefore string                    `xml:"ContentKeysNotValidBefore"`
	ContentKeysNotValidAfter  string                    `xml:"ContentKeysNotValidAfter"`
	AuthorizedDeviceInfo      *wireAuthorizedDeviceInfo `xml:"AuthorizedDeviceInfo"`
	KeyIdList                 wireKeyIdList             `xml:"KeyIdList"`
	ForensicMarkFlagList      *wireForensicMarkFlagList `xml:"ForensicMarkFlagList"`
}

type wireRecipient struct {
	X509IssuerSerial wireX509IssuerSerial `xml:"X509IssuerSerial"`
	X509SubjectName  string               `xml:"X509SubjectName"`
}

type wireX509IssuerSerial struct {
	X509IssuerName   string `xml:"X509IssuerName"`
	X509SerialNumber string `xml:"X509SerialNumber"`
}

type wireAuthorizedDeviceInfo struct {
	DeviceListIdentifier  string `xml:"DeviceListIdentifier"`
	DeviceListDescription string `xml:"DeviceListDescription"`
	DeviceList            struct {
		CertificateThumbprint []string `xml:"CertificateThumbprint"`
	} `xml:"DeviceList"`
}

type wireKeyIdList struct {
	TypedKeyId []wireTypedKeyId `xml:"TypedKeyId"`
}

type wireTypedKeyId struct {
	KeyType wireKeyType `xml:"KeyType"`
	KeyId   string      `xml:"KeyId"`
}

type wireKeyType struct {
	Scope string `xml:"scope,attr"`
	Value string `xml:",chardata"`
}

type wireForensicMarkFlagList struct {
	ForensicMarkFlag []string `xml:"ForensicMarkFlag"`
}

type wireAuthPrivate struct {
	EncryptedKey []wireEncryptedKey `xml:"EncryptedKey"`
}

type wireEncryptedKey struct {
	CipherData struct {
		CipherValue string `xml:"CipherValue"`
	} `xml:"CipherData"`
}

type wireSignature struct {
	SignedInfo     wireSignedInfo `xml:"SignedInfo"`
	SignatureValue string         `xml:"SignatureValue"`
	KeyInfo        wireKeyInfo    `xml:"KeyInfo"`
}

type wireSignedInfo struct {
	CanonicalizationMethod wireAlgorithm   `xml:"CanonicalizationMethod"`
	SignatureMethod        wireAlgorithm   `xml:"SignatureMethod"`
	Reference              []wireReference `xml:"Reference"`
}

type wireAlgorithm struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type wireReference struct {
	URI          string        `xml:"URI,attr"`
	DigestMethod wireAlgorithm `xml:"DigestMethod"`
	DigestValue  string        `xml:"DigestValue"`
}

type wireKeyInfo struct {
	X509Data []wireX509Data `xml:"X509Data"`
}

type wireX509Data struct {
	X509IssuerSerial wireX509IssuerSerial `xml:"X509IssuerSerial"`
	X509Certificate  string               `xml:"X509Certificate"`
}
