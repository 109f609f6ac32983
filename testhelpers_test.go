package dcpkdm

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// genTestCert mints a self-signed or CA-issued RSA certificate for test use,
// returning its PEM text alongside the parsed x509.Certificate and key.
func genTestCert(t *testing.T, cn string, serial int64, isCA bool, parent *x509.Certificate, parentKey *rsa.PrivateKey) (string, *x509.Certificate, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: cn, Organization: []string{"Example Cinema"}},
		NotBefore:    time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2033, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}
	if isCA {
		tmpl.IsCA = true
		tmpl.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign
		tmpl.BasicConstraintsValid = true
	}

	signer := tmpl
	signerKey := key
	if parent != nil {
		signer = parent
		signerKey = parentKey
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, signer, &key.PublicKey, signerKey)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	return pemText, cert, key
}

// genTestCertSelfSigned mints a self-signed, non-CA leaf certificate.
func genTestCertSelfSigned(t *testing.T, cn string, serial int64) (string, *x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	return genTestCert(t, cn, serial, false, nil, nil)
}

// genTestChain builds a root -> leaf two-link chain and returns each
// certificate's PEM text plus the leaf's private key PEM.
func genTestChain(t *testing.T) (rootPEM, leafPEM, leafKeyPEM string) {
	t.Helper()

	rootPEMText, rootCert, rootKey := genTestCert(t, "Root CA", 1, true, nil, nil)
	leafPEMText, _, leafKey := genTestCert(t, "SM.leaf.MEDIA-BLOCK", 2, false, rootCert, rootKey)

	keyDER := x509.MarshalPKCS1PrivateKey(leafKey)
	keyPEMText := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: keyDER}))

	return rootPEMText, leafPEMText, keyPEMText
}
