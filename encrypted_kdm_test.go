package dcpkdm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSignedKDM(t *testing.T, formulation Formulation) (EncryptedKDM, CertificateChain) {
	t.Helper()

	notBefore, err := ParseLocalTime("2013-01-05T18:06:59Z")
	require.NoError(t, err)
	notAfter := notBefore.AddDays(14)

	d := NewDecryptedKDM(notBefore, notAfter, "annotation", "My Feature Film", Now().String())
	key, err := NewKey()
	require.NoError(t, err)
	require.NoError(t, d.AddKey("MDIK", newUUID(), key, newUUID(), StandardInterop, ""))

	rootPEM, leafPEM, leafKeyPEM := genTestChain(t)
	root, err := ParseCertificate(rootPEM)
	require.NoError(t, err)
	leaf, err := ParseCertificate(leafPEM)
	require.NoError(t, err)
	signer, err := NewCertificateChain(root, leaf).WithPrivateKey(leafKeyPEM)
	require.NoError(t, err)

	_, recipientPEM, _ := genTestChain(t)
	recipient, err := ParseCertificate(recipientPEM)
	require.NoError(t, err)

	ek, err := d.Encrypt(signer, recipient, nil, formulation, false, nil)
	require.NoError(t, err)
	return ek, signer
}

func TestToXMLAndParseRoundTrip(t *testing.T) {
	ek, _ := buildSignedKDM(t, ModifiedTransitional1)

	doc, err := ek.ToXML()
	require.NoError(t, err)
	assert.Contains(t, string(doc), "DCinemaSecurityMessage")

	parsed, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, ek.ID(), parsed.ID())
	assert.Equal(t, ek.CPLID, parsed.CPLID)
	assert.Equal(t, ek.ContentTitleText, parsed.ContentTitleText)
	assert.Equal(t, ek.Keys(), parsed.Keys())
	assert.False(t, parsed.PictureMarkingDisabled)
	assert.Nil(t, parsed.AudioMarkingDisabledAboveChannel)
}

func TestVerifySignatureAcceptsValidDocument(t *testing.T) {
	ek, signer := buildSignedKDM(t, ModifiedTransitional1)

	doc, err := ek.ToXML()
	require.NoError(t, err)
	parsed, err := Parse(doc)
	require.NoError(t, err)

	assert.NoError(t, parsed.VerifySignature(&signer))
}

func TestVerifySignatureRejectsTamperedDocument(t *testing.T) {
	ek, signer := buildSignedKDM(t, ModifiedTransitional1)

	doc, err := ek.ToXML()
	require.NoError(t, err)
	parsed, err := Parse(doc)
	require.NoError(t, err)

	parsed.ContentTitleText = "A Different Film Entirely"
	assert.Error(t, parsed.VerifySignature(&signer))
}

func TestForensicMarkFlagsRoundTrip(t *testing.T) {
	ek, signer := buildSignedKDM(t, ModifiedTransitional1)
	channel := 3
	ek.PictureMarkingDisabled = true
	ek.AudioMarkingDisabledAboveChannel = &channel

	signerKey, ok := signer.PrivateKey()
	require.True(t, ok)
	require.NoError(t, ek.sign(signerKey))

	doc, err := ek.ToXML()
	require.NoError(t, err)

	parsed, err := Parse(doc)
	require.NoError(t, err)
	assert.True(t, parsed.PictureMarkingDisabled)
	require.NotNil(t, parsed.AudioMarkingDisabledAboveChannel)
	assert.Equal(t, 3, *parsed.AudioMarkingDisabledAboveChannel)
}

func TestDciAnyFormulationSetsContentAuthenticator(t *testing.T) {
	ek, _ := buildSignedKDM(t, DciAny)
	assert.NotEmpty(t, ek.ContentAuthenticator)
}

func TestModifiedTransitionalTestFormulationOmitsDeviceInfo(t *testing.T) {
	ek, _ := buildSignedKDM(t, ModifiedTransitionalTest)
	doc, err := ek.ToXML()
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "AuthorizedDeviceInfo")
}

func TestModifiedTransitional1UsesSentinelThumbprint(t *testing.T) {
	ek, _ := buildSignedKDM(t, ModifiedTransitional1)
	require.NotNil(t, ek.DeviceInfo)
	assert.Equal(t, []string{"2jmj7l5rSw0yVb/vlWAYkK/YBwk="}, ek.DeviceInfo.CertificateThumbprints)
}

func TestForensicMarkFlagURIs(t *testing.T) {
	zero, eight := 0, 8

	assert.Empty(t, forensicMarkFlags(false, nil))
	assert.Equal(t,
		[]string{"http://www.smpte-ra.org/430-1/2006/KDM#mrkflg-picture-disable"},
		forensicMarkFlags(true, nil))
	assert.Equal(t,
		[]string{"http://www.smpte-ra.org/430-1/2006/KDM#mrkflg-audio-disable"},
		forensicMarkFlags(false, &zero))
	assert.Equal(t,
		[]string{"http://www.smpte-ra.org/430-1/2006/KDM#mrkflg-audio-disable-above-channel-8"},
		forensicMarkFlags(false, &eight))
}

// sampleInteropKDM is a hand-assembled interop document exercising the read
// path on input this library did not itself produce.
const sampleInteropKDM = `<DCinemaSecurityMessage xmlns="http://www.smpte-ra.org/schemas/430-3/2006/ETM" xmlns:ds="http://www.w3.org/2000/09/xmldsig#" xmlns:enc="http://www.w3.org/2001/04/xmlenc#">
  <AuthenticatedPublic Id="ID_AuthenticatedPublic">
    <MessageId>urn:uuid:1ec7d685-cc75-4f56-b09a-41a914d9d51f</MessageId>
    <MessageType>http://www.smpte-ra.org/430-1/2006/KDM#kdm-key-type</MessageType>
    <AnnotationText>Perfect Movie KDM</AnnotationText>
    <IssueDate>2013-01-05T18:06:59+00:00</IssueDate>
    <Signer>
      <ds:X509IssuerName>CN=Example Root CA,O=Example Cinema</ds:X509IssuerName>
      <ds:X509SerialNumber>5</ds:X509SerialNumber>
    </Signer>
    <RequiredExtensions>
      <KDMRequiredExtensions xmlns="http://www.smpte-ra.org/schemas/430-1/2006/KDM">
        <Recipient>
          <X509IssuerSerial>
            <ds:X509IssuerName>CN=Example Root CA,O=Example Cinema</ds:X509IssuerName>
            <ds:X509SerialNumber>42</ds:X509SerialNumber>
          </X509IssuerSerial>
          <X509SubjectName>CN=SM.projector-1,O=Example Cinema</X509SubjectName>
        </Recipient>
        <CompositionPlaylistId>urn:uuid:fedcba98-7654-3210-fedc-ba9876543210</CompositionPlaylistId>
        <ContentTitleText>Perfect Movie</ContentTitleText>
        <ContentKeysNotValidBefore>2013-01-05T18:06:59+00:00</ContentKeysNotValidBefore>
        <ContentKeysNotValidAfter>2013-02-05T18:06:59+00:00</ContentKeysNotValidAfter>
        <KeyIdList>
          <TypedKeyId>
            <KeyType scope="http://www.smpte-ra.org/430-1/2006/KDM#kdm-key-type">MDIK</KeyType>
            <KeyId>urn:uuid:01234567-89ab-cdef-0123-456789abcdef</KeyId>
          </TypedKeyId>
        </KeyIdList>
      </KDMRequiredExtensions>
    </RequiredExtensions>
    <NonCriticalExtensions/>
  </AuthenticatedPublic>
  <AuthenticatedPrivate Id="ID_AuthenticatedPrivate">
    <enc:EncryptedKey>
      <enc:EncryptionMethod Algorithm="http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p">
        <ds:DigestMethod Algorithm="http://www.w3.org/2000/09/xmldsig#sha1"/>
      </enc:EncryptionMethod>
      <enc:CipherData><enc:CipherValue>bm90IGEgcmVhbCBjaXBoZXJ0ZXh0</enc:CipherValue></enc:CipherData>
    </enc:EncryptedKey>
  </AuthenticatedPrivate>
  <Signature xmlns="http://www.w3.org/2000/09/xmldsig#">
    <SignedInfo>
      <CanonicalizationMethod Algorithm="http://www.w3.org/TR/2001/REC-xml-c14n-20010315"/>
      <SignatureMethod Algorithm="http://www.w3.org/2000/09/xmldsig#rsa-sha1"/>
      <Reference URI="#ID_AuthenticatedPublic"><DigestValue>bm90IGEgcmVhbCBkaWdlc3Q=</DigestValue></Reference>
      <Reference URI="#ID_AuthenticatedPrivate"><DigestValue>bm90IGEgcmVhbCBkaWdlc3Q=</DigestValue></Reference>
    </SignedInfo>
    <SignatureValue>bm90IGEgcmVhbCBzaWduYXR1cmU=</SignatureValue>
  </Signature>
</DCinemaSecurityMessage>`

func TestParseSampleInteropKDM(t *testing.T) {
	ek, err := Parse([]byte(sampleInteropKDM))
	require.NoError(t, err)

	assert.Equal(t, "1ec7d685-cc75-4f56-b09a-41a914d9d51f", ek.ID())
	assert.Equal(t, "fedcba98-7654-3210-fedc-ba9876543210", ek.CPLID)
	assert.Equal(t, "Perfect Movie KDM", ek.AnnotationText)
	assert.Equal(t, "Perfect Movie", ek.ContentTitleText)
	assert.Equal(t, StandardInterop, ek.Standard)
	assert.Len(t, ek.Keys(), 1)
	require.Len(t, ek.KeyIDs, 1)
	assert.Equal(t, "MDIK", ek.KeyIDs[0].KeyType)
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", ek.KeyIDs[0].KeyID)
	assert.False(t, ek.PictureMarkingDisabled)
	assert.Nil(t, ek.AudioMarkingDisabledAboveChannel)
}

func TestParseRejectsKeyCountMismatch(t *testing.T) {
	mangled := strings.Replace(sampleInteropKDM,
		`<AuthenticatedPrivate Id="ID_AuthenticatedPrivate">`,
		`<AuthenticatedPrivate Id="ID_AuthenticatedPrivate">
    <enc:EncryptedKey>
      <enc:CipherData><enc:CipherValue>ZXh0cmEga2V5</enc:CipherValue></enc:CipherData>
    </enc:EncryptedKey>`, 1)

	_, err := Parse([]byte(mangled))
	require.Error(t, err)
	var fmtErr *KDMFormatError
	assert.ErrorAs(t, err, &fmtErr)
}

func TestParseRejectsMalformedXML(t *testing.T) {
	_, err := Parse([]byte("<DCinemaSecurityMessage>"))
	require.Error(t, err)
	var fmtErr *KDMFormatError
	assert.ErrorAs(t, err, &fmtErr)
}

func TestEmitSMPTEKDMAndRecoverKey(t *testing.T) {
	notBefore, err := ParseLocalTime("2023-01-20T09:30:00+00:00")
	require.NoError(t, err)
	notAfter, err := ParseLocalTime("2023-11-01T09:30:00+00:00")
	require.NoError(t, err)

	d := NewDecryptedKDM(notBefore, notAfter, "KDM annotation", "KDM content title", Now().String())
	key, err := KeyFromHex("00112233445566778899aabbccddeeff")
	require.NoError(t, err)
	require.NoError(t, d.AddKey("MDIK", "01234567-89ab-cdef-0123-456789abcdef", key,
		"fedcba98-7654-3210-fedc-ba9876543210", StandardSMPTE, ""))

	rootPEM, leafPEM, leafKeyPEM := genTestChain(t)
	root, err := ParseCertificate(rootPEM)
	require.NoError(t, err)
	leaf, err := ParseCertificate(leafPEM)
	require.NoError(t, err)
	signer, err := NewCertificateChain(root, leaf).WithPrivateKey(leafKeyPEM)
	require.NoError(t, err)

	_, recipientPEM, recipientKeyPEM := genTestChain(t)
	recipient, err := ParseCertificate(recipientPEM)
	require.NoError(t, err)

	ek, err := d.Encrypt(signer, recipient, nil, ModifiedTransitional1, false, nil)
	require.NoError(t, err)
	assert.Equal(t, StandardSMPTE, ek.Standard)

	doc, err := ek.ToXML()
	require.NoError(t, err)

	parsed, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "KDM content title", parsed.ContentTitleText)
	require.Len(t, parsed.Keys(), 1)
	// a 2048-bit RSA-OAEP ciphertext is 256 bytes, 344 characters of base64
	assert.Len(t, parsed.Keys()[0], 344)

	decrypted, err := FromEncrypted(parsed, recipientKeyPEM)
	require.NoError(t, err)
	require.Len(t, decrypted.Keys, 1)
	assert.Equal(t, "MDIK", decrypted.Keys[0].KeyType)
	assert.Equal(t, "00112233445566778899aabbccddeeff", decrypted.Keys[0].Key.Hex())
	assert.Equal(t, "fedcba98-7654-3210-fedc-ba9876543210", decrypted.Keys[0].CPLID)
	assert.Equal(t, StandardSMPTE, decrypted.Keys[0].Standard)
}
