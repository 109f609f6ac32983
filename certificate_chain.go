package dcpkdm

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/asn1"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// CertificateChain is an unordered set of certificates plus, optionally, the
// PEM-encoded private key belonging to the leaf. Ordering (root→leaf or
// leaf→root) is a derived view computed on demand, not stored state: the
// certificates a caller hands in from an X509Data block or a PEM bundle
// arrive in whatever order the producer chose to write them.
type CertificateChain struct {
	certs      []Certificate
	privateKey *rsa.PrivateKey
}

// FromPEMBundle repeatedly peels one certificate off the front of bundle
// (using Certificate's residual-string behaviour) until the input is
// exhausted, stopping at the first parse error.
func FromPEMBundle(bundle string) (CertificateChain, error) {
	var chain CertificateChain
	remaining := bundle
	for strings.TrimSpace(remaining) != "" {
		cert, residual, err := parseCertificateWithResidual(remaining)
		if err != nil {
			return CertificateChain{}, err
		}
		chain.certs = append(chain.certs, cert)
		remaining = residual
	}
	if len(chain.certs) == 0 {
		return CertificateChain{}, &CertificateChainError{Reason: "PEM bundle contained no certificates"}
	}
	return chain, nil
}

// NewCertificateChain builds a chain from already-parsed certificates, in no
// particular order.
func NewCertificateChain(certs ...Certificate) CertificateChain {
	return CertificateChain{certs: append([]Certificate(nil), certs...)}
}

// WithPrivateKey returns a copy of the chain carrying the given PEM-encoded
// RSA private key (PKCS#1 or PKCS#8), associated with whichever certificate
// in the chain is the leaf.
func (c CertificateChain) WithPrivateKey(privateKeyPEM string) (CertificateChain, error) {
	key, err := parseRSAPrivateKeyPEM(privateKeyPEM)
	if err != nil {
		return CertificateChain{}, err
	}
	out := c
	out.privateKey = key
	return out, nil
}

// Certificates returns the chain's certificates in their stored (unordered)
// sequence.
func (c CertificateChain) Certificates() []Certificate {
	return append([]Certificate(nil), c.certs...)
}

// PrivateKey returns the chain's associated private key, if any.
func (c CertificateChain) PrivateKey() (*rsa.PrivateKey, bool) {
	return c.privateKey, c.privateKey != nil
}

// RootToLeaf returns the chain ordered from root to leaf. It searches
// permutations of the stored certificates for one satisfying the pairwise
// issuer/subject invariant; with the small chain sizes KDMs actually use
// (2-4 certificates) a brute-force search over a stably sorted base is
// cheap and, because the search always starts from the same sorted base,
// deterministic across repeated calls.
func (c CertificateChain) RootToLeaf() ([]Certificate, error) {
	base := append([]Certificate(nil), c.certs...)
	sort.SliceStable(base, func(i, j int) bool {
		return base[i].Subject() < base[j].Subject()
	})

	ordering := searchOrdering(base)
	if ordering == nil {
		return nil, &CertificateChainError{Reason: "no valid root-to-leaf ordering exists for this certificate set"}
	}
	return ordering, nil
}

// LeafToRoot returns RootToLeaf reversed.
func (c CertificateChain) LeafToRoot() ([]Certificate, error) {
	ordered, err := c.RootToLeaf()
	if err != nil {
		return nil, err
	}
	reversed := make([]Certificate, len(ordered))
	for i, cert := range ordered {
		reversed[len(ordered)-1-i] = cert
	}
	return reversed, nil
}

// Root returns the chain's root certificate (the head of RootToLeaf).
func (c CertificateChain) Root() (Certificate, error) {
	ordered, err := c.RootToLeaf()
	if err != nil {
		return Certificate{}, err
	}
	return ordered[0], nil
}

// Leaf returns the chain's leaf certificate (the tail of RootToLeaf).
func (c CertificateChain) Leaf() (Certificate, error) {
	ordered, err := c.RootToLeaf()
	if err != nil {
		return Certificate{}, err
	}
	return ordered[len(ordered)-1], nil
}

// searchOrdering tries every permutation of base until it finds one where
// each adjacent pair satisfies: subject.Issuer == issuer.Subject,
// subject.Subject != issuer.Subject, and the provider accepts the signature.
// Returns nil if no permutation works.
func searchOrdering(base []Certificate) []Certificate {
	if len(base) == 1 {
		return base
	}
	perm := append([]Certificate(nil), base...)
	var found []Certificate
	permute(perm, 0, func(candidate []Certificate) bool {
		if validOrdering(candidate) {
			found = append([]Certificate(nil), candidate...)
			return true
		}
		return false
	})
	return found
}

// permute visits every permutation of items[k:] in place by recursive
// swapping (swap, recurse, swap back), stopping as soon as visit returns true.
func permute(items []Certificate, k int, visit func([]Certificate) bool) bool {
	if k == len(items) {
		return visit(items)
	}
	for i := k; i < len(items); i++ {
		items[k], items[i] = items[i], items[k]
		if permute(items, k+1, visit) {
			items[k], items[i] = items[i], items[k]
			return true
		}
		items[k], items[i] = items[i], items[k]
	}
	return false
}

func validOrdering(ordered []Certificate) bool {
	for i := 1; i < len(ordered); i++ {
		issuer := ordered[i-1]
		subject := ordered[i]
		if subject.Issuer() != issuer.Subject() {
			return false
		}
		if subject.Subject() == issuer.Subject() {
			return false
		}
		if err := subject.rawCertificate().CheckSignatureFrom(issuer.rawCertificate()); err != nil {
			return false
		}
	}
	return true
}

// Validate checks that a consistent root-to-leaf ordering exists and, if a
// private key is attached, that its modulus matches the leaf's.
func (c CertificateChain) Validate() error {
	ordered, err := c.RootToLeaf()
	if err != nil {
		return err
	}
	if c.privateKey == nil {
		return nil
	}
	leaf := ordered[len(ordered)-1]
	leafPub, err := leaf.PublicKey()
	if err != nil {
		return &CertificateChainError{Reason: "leaf certificate has no RSA public key"}
	}
	if !equalRSAPublicKeys(leafPub, &c.privateKey.PublicKey) {
		return &CertificateChainError{Reason: "private key modulus does not match leaf certificate"}
	}
	return nil
}

func parseRSAPrivateKeyPEM(pemText string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, newMiscError("could not read private key: no PEM block found", nil)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, newMiscError("could not read private key", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, newMiscError("private key is not RSA", nil)
	}
	return rsaKey, nil
}

// dnQualifierFromPublicKey derives the SMPTE ST 430-2 dnQualifier: the
// SubjectPublicKeyInfo DER is stripped of its leading 24 bytes (the
// AlgorithmIdentifier and BIT STRING framing that precedes the actual
// RSA key payload for a 2048-bit key), SHA-1'd, base64-encoded, and has
// any '/' escaped for use as a literal inside an openssl -subj DN string.
func dnQualifierFromPublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", newMiscError("could not marshal public key", err)
	}
	const spkiHeaderLen = 24
	if len(der) <= spkiHeaderLen {
		return "", newMiscError("public key DER too short to derive dnQualifier", nil)
	}
	sum := sha1.Sum(der[spkiHeaderLen:])
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	return escapeDNSlash(encoded), nil
}

// escapeDNSlash escapes '/' the way the platform's shell quoting for an
// openssl -subj argument requires: a literal backslash-slash everywhere,
// doubled on Windows where the shell itself consumes one backslash.
func escapeDNSlash(s string) string {
	if runtime.GOOS == "windows" {
		return strings.ReplaceAll(s, "/", `\\/`)
	}
	return strings.ReplaceAll(s, "/", `\/`)
}

// chainCertSpec describes one certificate to mint in GenerateNew/
// GenerateNewInProcess: common name, serial, basic constraints and key
// usage, following the fixed SMPTE root/intermediate/leaf recipe.
type chainCertSpec struct {
	commonName string
	serial     int64
	isCA       bool
	pathLen    int
	keyUsage   x509.KeyUsage
}

func chainSpecs(profile *ChainProfile) []chainCertSpec {
	return []chainCertSpec{
		{commonName: profile.RootCommonName, serial: 5, isCA: true, pathLen: 3, keyUsage: x509.KeyUsageCertSign | x509.KeyUsageCRLSign},
		{commonName: profile.IntermediateCommonName, serial: 6, isCA: true, pathLen: 2, keyUsage: x509.KeyUsageCertSign | x509.KeyUsageCRLSign},
		{commonName: profile.LeafCommonName, serial: 7, isCA: false, keyUsage: x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment},
	}
}

// GenerateNewInProcess mints a fresh root/intermediate/leaf chain entirely
// with the standard library's crypto/x509, without shelling out to openssl.
// It follows the same validate-then-mutate, serial-5/6/7, 2048-bit-RSA,
// 40-year-default recipe as GenerateNew, and is the preferred path when no
// openssl binary is available on the host.
func GenerateNewInProcess(profile *ChainProfile) (CertificateChain, error) {
	specs := chainSpecs(profile)
	now := time.Now().UTC()
	notAfter := now.AddDate(0, 0, profile.ValidityDays)

	var (
		chain      CertificateChain
		parentTmpl *x509.Certificate
		parentKey  *rsa.PrivateKey
		leafKey    *rsa.PrivateKey
	)

	for _, spec := range specs {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return CertificateChain{}, newMiscError("failed to generate RSA key", err)
		}

		qualifier, err := dnQualifierFromPublicKey(&key.PublicKey)
		if err != nil {
			return CertificateChain{}, err
		}

		subject, err := dcinemaSubject(spec.commonName, profile.Organisation, profile.OrganisationalUnit, qualifier)
		if err != nil {
			return CertificateChain{}, err
		}

		template := &x509.Certificate{
			SerialNumber:          big.NewInt(spec.serial),
			Subject:               subject,
			NotBefore:             now,
			NotAfter:              notAfter,
			KeyUsage:              spec.keyUsage,
			BasicConstraintsValid: true,
			IsCA:                  spec.isCA,
		}
		if spec.isCA {
			template.MaxPathLen = spec.pathLen
			template.MaxPathLenZero = spec.pathLen == 0
		}

		signerTemplate := template
		signerKey := key
		if parentTmpl != nil {
			signerTemplate = parentTmpl
			signerKey = parentKey
		}

		der, err := x509.CreateCertificate(rand.Reader, template, signerTemplate, &key.PublicKey, signerKey)
		if err != nil {
			return CertificateChain{}, newMiscError("failed to create certificate", err)
		}
		cert, err := ParseCertificate(rewrapPEM(der))
		if err != nil {
			return CertificateChain{}, err
		}
		chain.certs = append(chain.certs, cert)

		parentTmpl = template
		parentTmpl.Raw = der
		parentKey = key
		leafKey = key
	}

	chain.privateKey = leafKey
	return chain, nil
}

// dnQualifierOID is the standard arc for id-at-dnQualifier (2.5.4.46).
var dnQualifierOID = asn1.ObjectIdentifier{2, 5, 4, 46}

// GenerateNew shells out to the openssl command-line tool (the external
// process collaborator named in the design) to produce three 2048-bit RSA
// keys and three certificates valid for profile.ValidityDays, with serial
// numbers 5 (self-signed root), 6 (intermediate) and 7 (leaf). Work happens
// in a temporary directory that is removed before return.
func GenerateNew(ctx context.Context, profile *ChainProfile) (CertificateChain, error) {
	workDir, err := os.MkdirTemp("", "dcpkdm-chain-")
	if err != nil {
		return CertificateChain{}, newMiscError("failed to create temp directory", err)
	}
	defer os.RemoveAll(workDir)

	opensslPath := profile.OpenSSLPath
	if opensslPath == "" {
		opensslPath = "openssl"
	}

	specs := chainSpecs(profile)
	var (
		chain        CertificateChain
		parentCert   string
		parentKey    string
		leafKeyPath  string
	)

	for i, spec := range specs {
		keyPath := filepath.Join(workDir, fmt.Sprintf("%d.key.pem", spec.serial))
		csrPath := filepath.Join(workDir, fmt.Sprintf("%d.csr.pem", spec.serial))
		certPath := filepath.Join(workDir, fmt.Sprintf("%d.cert.pem", spec.serial))

		genKey := exec.CommandContext(ctx, opensslPath, "genrsa", "-out", keyPath, "2048")
		if out, err := genKey.CombinedOutput(); err != nil {
			pkgLogger.Error().Str("stage", "genrsa").Str("output", string(out)).Err(err).Msg("openssl subprocess failed")
			return CertificateChain{}, newMiscError("openssl genrsa failed", err)
		}

		keyPEM, err := os.ReadFile(keyPath)
		if err != nil {
			return CertificateChain{}, newMiscError("could not read generated key", err)
		}
		rsaKey, err := parseRSAPrivateKeyPEM(string(keyPEM))
		if err != nil {
			return CertificateChain{}, err
		}
		qualifier, err := dnQualifierFromPublicKey(&rsaKey.PublicKey)
		if err != nil {
			return CertificateChain{}, err
		}

		subj := fmt.Sprintf("/O=%s/OU=%s/CN=%s/dnQualifier=%s",
			profile.Organisation, profile.OrganisationalUnit, spec.commonName, qualifier)

		req := exec.CommandContext(ctx, opensslPath, "req", "-new",
			"-key", keyPath, "-out", csrPath, "-subj", subj)
		if out, err := req.CombinedOutput(); err != nil {
			pkgLogger.Error().Str("stage", "req").Str("output", string(out)).Err(err).Msg("openssl subprocess failed")
			return CertificateChain{}, newMiscError("openssl req failed", err)
		}

		extFile := filepath.Join(workDir, fmt.Sprintf("%d.ext", spec.serial))
		if err := os.WriteFile(extFile, []byte(opensslExtensions(spec)), 0o644); err != nil {
			return CertificateChain{}, newMiscError("failed to write extensions file", err)
		}

		args := []string{"x509", "-req",
			"-in", csrPath,
			"-out", certPath,
			"-days", fmt.Sprintf("%d", profile.ValidityDays),
			"-extfile", extFile,
			"-set_serial", fmt.Sprintf("%d", spec.serial),
		}
		if i == 0 {
			args = append(args, "-signkey", keyPath)
		} else {
			args = append(args, "-CA", parentCert, "-CAkey", parentKey, "-CAcreateserial")
		}
		sign := exec.CommandContext(ctx, opensslPath, args...)
		if out, err := sign.CombinedOutput(); err != nil {
			pkgLogger.Error().Str("stage", "x509").Str("output", string(out)).Err(err).Msg("openssl subprocess failed")
			return CertificateChain{}, newMiscError("openssl x509 signing failed", err)
		}

		certPEM, err := os.ReadFile(certPath)
		if err != nil {
			return CertificateChain{}, newMiscError("could not read generated certificate", err)
		}
		cert, err := ParseCertificate(string(certPEM))
		if err != nil {
			return CertificateChain{}, err
		}
		chain.certs = append(chain.certs, cert)

		parentCert = certPath
		parentKey = keyPath
		leafKeyPath = keyPath
	}

	leafKeyPEM, err := os.ReadFile(leafKeyPath)
	if err != nil {
		return CertificateChain{}, newMiscError("could not read leaf key", err)
	}
	return chain.WithPrivateKey(string(leafKeyPEM))
}

// opensslExtensions renders the v3 extensions file content openssl x509 -req
// needs for basicConstraints/keyUsage.
func opensslExtensions(spec chainCertSpec) string {
	var sb strings.Builder
	sb.WriteString("basicConstraints=critical,")
	if spec.isCA {
		sb.WriteString(fmt.Sprintf("CA:TRUE,pathlen:%d\n", spec.pathLen))
		sb.WriteString("keyUsage=critical,keyCertSign,cRLSign\n")
	} else {
		sb.WriteString("CA:FALSE\n")
		sb.WriteString("keyUsage=critical,digitalSignature,keyEncipherment\n")
	}
	return sb.String()
}
