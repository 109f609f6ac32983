package dcpkdm

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"fmt"
	"strings"
)

// Formulation is a policy preset controlling AuthorizedDeviceInfo thumbprint
// handling and ContentAuthenticator presence when encrypting a DecryptedKDM.
type Formulation int

const (
	ModifiedTransitional1 Formulation = iota
	MultipleModifiedTransitional1
	DciAny
	DciSpecific
	ModifiedTransitionalTest
)

// sentinelThumbprint is base64(SHA-1("")), the "assume trust" / "any device"
// marker used when no specific trusted device thumbprints are supplied.
const sentinelThumbprint = "2jmj7l5rSw0yVb/vlWAYkK/YBwk="

// DecryptedKey is one content key within a DecryptedKDM: its identity, the
// composition it belongs to, its 4-character type tag, the key material
// itself, and which KeyRecord layout it should be packed as.
type DecryptedKey struct {
	CPLID        string
	ID           string
	Key          Key
	KeyType      string
	Standard     Standard
	KeyTypeScope string
}

// DecryptedKDM is the producer-facing, plaintext view of a KDM: the set of
// content keys plus the metadata that will populate AuthenticatedPublic once
// encrypted.
type DecryptedKDM struct {
	AnnotationText   string
	ContentTitleText string
	IssueDate        string
	NotValidBefore   LocalTime
	NotValidAfter    LocalTime
	Keys             []DecryptedKey
}

// NewDecryptedKDM constructs an empty DecryptedKDM from producer inputs.
// Keys are added afterward via AddKey. The before < after ordering is not
// enforced here; CheckWindow is the explicit caller step for that.
func NewDecryptedKDM(notValidBefore, notValidAfter LocalTime, annotationText, contentTitleText, issueDate string) DecryptedKDM {
	return DecryptedKDM{
		AnnotationText:   annotationText,
		ContentTitleText: contentTitleText,
		IssueDate:        issueDate,
		NotValidBefore:   notValidBefore,
		NotValidAfter:    notValidAfter,
	}
}

// AddKey appends a DecryptedKey. The id must be unique within the KDM.
func (d *DecryptedKDM) AddKey(keyType, id string, key Key, cplID string, standard Standard, keyTypeScope string) error {
	for _, existing := range d.Keys {
		if existing.ID == id {
			return newMiscError(fmt.Sprintf("duplicate key id %q in DecryptedKDM", id), nil)
		}
	}
	d.Keys = append(d.Keys, DecryptedKey{
		CPLID:        cplID,
		ID:           id,
		Key:          key,
		KeyType:      keyType,
		Standard:     standard,
		KeyTypeScope: keyTypeScope,
	})
	return nil
}

// CheckWindow reports whether NotValidBefore precedes NotValidAfter.
// Construction and encryption accept any ordering; callers that want an
// enforceable validity window invoke this before delivering the KDM.
func (d DecryptedKDM) CheckWindow() error {
	if !d.NotValidBefore.Before(d.NotValidAfter) {
		return newMiscError("not_valid_before does not precede not_valid_after", nil)
	}
	return nil
}

// Encrypt builds an EncryptedKDM for recipient, wrapping each content key
// under recipient's RSA public key and signing the result with signer's
// leaf certificate and private key.
func (d DecryptedKDM) Encrypt(signer CertificateChain, recipient Certificate, trustedDevices []string, formulation Formulation, disableForensicMarkingPicture bool, disableForensicMarkingAudio *int) (EncryptedKDM, error) {
	if len(d.Keys) == 0 {
		return EncryptedKDM{}, newMiscError("cannot encrypt a DecryptedKDM with no keys", nil)
	}

	standard := d.Keys[0].Standard
	cplID := d.Keys[0].CPLID
	for _, k := range d.Keys[1:] {
		if k.Standard != standard {
			return EncryptedKDM{}, newMiscError("all keys in a KDM must share one standard (interop/SMPTE)", nil)
		}
		if k.CPLID != cplID {
			return EncryptedKDM{}, newMiscError("all keys in a KDM must agree on composition_playlist_id", nil)
		}
	}

	leaf, err := signer.Leaf()
	if err != nil {
		return EncryptedKDM{}, err
	}
	signerPrivKey, ok := signer.PrivateKey()
	if !ok {
		return EncryptedKDM{}, newMiscError("signer certificate chain has no associated private key", nil)
	}

	recipientPub, err := recipient.PublicKey()
	if err != nil {
		return EncryptedKDM{}, err
	}

	thumbprint := leaf.rawThumbprint()
	encryptedKeys := make([]string, 0, len(d.Keys))
	for _, k := range d.Keys {
		record := KeyRecord{
			Standard:         k.Standard,
			SignerThumbprint: thumbprint,
			CPLID:            k.CPLID,
			KeyID:            k.ID,
			KeyType:          k.KeyType,
			NotValidBefore:   d.NotValidBefore,
			NotValidAfter:    d.NotValidAfter,
			ContentKey:       k.Key,
		}
		plaintext, err := record.Encode()
		if err != nil {
			return EncryptedKDM{}, err
		}
		ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, recipientPub, plaintext, nil)
		if err != nil {
			return EncryptedKDM{}, newMiscError("RSA-OAEP encryption failed", err)
		}
		encryptedKeys = append(encryptedKeys, encodeB64(ciphertext))
	}

	var contentAuthenticator string
	if formulation == DciAny || formulation == DciSpecific {
		contentAuthenticator = leaf.Thumbprint()
	}

	var deviceThumbprints []string
	var includeDeviceInfo bool
	switch formulation {
	case ModifiedTransitional1:
		deviceThumbprints = []string{sentinelThumbprint}
		includeDeviceInfo = true
	case MultipleModifiedTransitional1, DciSpecific:
		if len(trustedDevices) > 0 {
			deviceThumbprints = append([]string(nil), trustedDevices...)
		} else {
			deviceThumbprints = []string{sentinelThumbprint}
		}
		includeDeviceInfo = true
	case DciAny:
		deviceThumbprints = []string{sentinelThumbprint}
		includeDeviceInfo = true
	case ModifiedTransitionalTest:
		includeDeviceInfo = false
	}

	var deviceInfo *authorizedDeviceInfo
	if includeDeviceInfo {
		deviceInfo = &authorizedDeviceInfo{
			DeviceListIdentifier:   newUUID(),
			DeviceListDescription:  stripDeviceDescriptionPrefix(recipient.SubjectCommonName()),
			CertificateThumbprints: deviceThumbprints,
		}
	}

	keyIDs := make([]typedKeyID, 0, len(d.Keys))
	for _, k := range d.Keys {
		keyIDs = append(keyIDs, typedKeyID{
			KeyType: k.KeyType,
			Scope:   keyTypeScopeFor(k.KeyType, k.KeyTypeScope),
			KeyID:   k.ID,
		})
	}

	ek := EncryptedKDM{
		MessageID:                        newUUID(),
		AnnotationText:                   d.AnnotationText,
		IssueDate:                        d.IssueDate,
		SignerIssuer:                     leaf.Issuer(),
		SignerSerial:                     leaf.Serial(),
		RecipientIssuer:                  recipient.Issuer(),
		RecipientSerial:                  recipient.Serial(),
		RecipientSubject:                 recipient.Subject(),
		CPLID:                            cplID,
		ContentAuthenticator:             contentAuthenticator,
		ContentTitleText:                 d.ContentTitleText,
		NotValidBefore:                   d.NotValidBefore,
		NotValidAfter:                    d.NotValidAfter,
		DeviceInfo:                       deviceInfo,
		KeyIDs:                           keyIDs,
		PictureMarkingDisabled:           disableForensicMarkingPicture,
		AudioMarkingDisabledAboveChannel: disableForensicMarkingAudio,
		EncryptedKeys:                    encryptedKeys,
		Standard:                         standard,
		SignerChain:                      signer,
	}

	if err := ek.sign(signerPrivKey); err != nil {
		return EncryptedKDM{}, err
	}

	return ek, nil
}

// stripDeviceDescriptionPrefix derives the device list description from the
// recipient's common name by dropping the text up to and including the first
// '.': media block certificates commonly carry a CN like
// "SM.<serial>.MB1.MEDIA-BLOCK", which becomes "<serial>.MB1.MEDIA-BLOCK".
// A CN with no '.' is returned unchanged.
func stripDeviceDescriptionPrefix(cn string) string {
	idx := strings.Index(cn, ".")
	if idx < 0 {
		return cn
	}
	return cn[idx+1:]
}

// keyTypeScopeFor returns the KeyType scope URI, honouring an explicit
// override when supplied and otherwise applying the MDEK/Dolby split.
func keyTypeScopeFor(keyType, explicitScope string) string {
	if explicitScope != "" {
		return explicitScope
	}
	if keyType == "MDEK" {
		return keyTypeScopeDolby
	}
	return keyTypeScopeSMPTE
}

// FromEncrypted decrypts ek's AuthenticatedPrivate key records under
// privateKeyPEM, producing the plaintext DecryptedKDM.
func FromEncrypted(ek EncryptedKDM, privateKeyPEM string) (DecryptedKDM, error) {
	privKey, err := parseRSAPrivateKeyPEM(privateKeyPEM)
	if err != nil {
		return DecryptedKDM{}, err
	}

	d := DecryptedKDM{
		AnnotationText:   ek.AnnotationText,
		ContentTitleText: ek.ContentTitleText,
		IssueDate:        ek.IssueDate,
		NotValidBefore:   ek.NotValidBefore,
		NotValidAfter:    ek.NotValidAfter,
	}

	modulusBytes := (privKey.N.BitLen() + 7) / 8
	for _, b64 := range ek.EncryptedKeys {
		cipher, err := decodeB64(b64)
		if err != nil {
			return DecryptedKDM{}, newKDMFormatError("malformed base64 in AuthenticatedPrivate", err)
		}
		plaintext, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, privKey, cipher, nil)
		if err != nil {
			return DecryptedKDM{}, &KDMDecryptionError{CipherLen: len(cipher), ModulusMax: modulusBytes}
		}
		if len(plaintext) != interopRecordLen && len(plaintext) != smpteRecordLen {
			return DecryptedKDM{}, &KDMDecryptionError{CipherLen: len(cipher), ModulusMax: modulusBytes}
		}
		record, err := DecodeKeyRecord(plaintext)
		if err != nil {
			return DecryptedKDM{}, err
		}
		d.Keys = append(d.Keys, DecryptedKey{
			CPLID:    record.CPLID,
			ID:       record.KeyID,
			Key:      record.ContentKey,
			KeyType:  record.KeyType,
			Standard: record.Standard,
		})
	}

	return d, nil
}

// Describe renders a short human-readable summary of the KDM's metadata and
// keys: title, validity window, and one line per key (id, type, cpl).
func (d DecryptedKDM) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Content: %s\n", d.ContentTitleText)
	if d.AnnotationText != "" {
		fmt.Fprintf(&sb, "Annotation: %s\n", d.AnnotationText)
	}
	fmt.Fprintf(&sb, "Valid: %s to %s\n", d.NotValidBefore.String(), d.NotValidAfter.String())
	fmt.Fprintf(&sb, "Keys: %d\n", len(d.Keys))
	for _, k := range d.Keys {
		fmt.Fprintf(&sb, "  %s %s cpl=%s standard=%s\n", k.KeyType, k.ID, k.CPLID, k.Standard)
	}
	return sb.String()
}
