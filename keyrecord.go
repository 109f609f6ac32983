package dcpkdm

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// Standard distinguishes the two KeyRecord wire layouts a DecryptedKey can
// carry. All keys within a single KDM must share one Standard.
type Standard int

const (
	StandardInterop Standard = iota
	StandardSMPTE
)

func (s Standard) String() string {
	if s == StandardSMPTE {
		return "SMPTE"
	}
	return "Interop"
}

const (
	keyRecordStructureIDLen = 16
	keyRecordThumbprintLen  = 20
	keyRecordUUIDLen        = 16
	keyRecordKeyTypeLen     = 4
	keyRecordTimeFieldLen   = 25
	keyRecordContentKeyLen  = KeyLength

	// interopRecordLen is the total plaintext length of an interop KeyRecord:
	// the common fields with no additional framing.
	interopRecordLen = keyRecordStructureIDLen + keyRecordThumbprintLen + keyRecordUUIDLen*2 +
		keyRecordKeyTypeLen + keyRecordTimeFieldLen*2 + keyRecordContentKeyLen

	// smpteFormatTagLen is the one-byte format-version tag SMPTE KeyRecords
	// prefix the common fields with; interop carries no such prefix.
	smpteFormatTagLen = 1
	smpteRecordLen    = smpteFormatTagLen + interopRecordLen
	smpteFormatTag    = byte(0x01)
)

// keyRecordStructureID marks the record schema in both layouts. It is the
// all-zero constant the design permits; the two layouts are
// distinguished by total length (and, for SMPTE, the leading format tag)
// rather than by this field's content.
var keyRecordStructureID = [keyRecordStructureIDLen]byte{}

// KeyRecord is the plaintext structure encrypted under RSA-OAEP to produce
// one entry of AuthenticatedPrivate.encrypted_keys.
type KeyRecord struct {
	Standard          Standard
	SignerThumbprint  [keyRecordThumbprintLen]byte
	CPLID             string
	KeyID             string
	KeyType           string
	NotValidBefore    LocalTime
	NotValidAfter     LocalTime
	ContentKey        Key
}

// Encode packs the KeyRecord into its big-endian binary layout, ready for
// RSA-OAEP encryption.
func (r KeyRecord) Encode() ([]byte, error) {
	cplBytes, err := uuidToBytes(r.CPLID)
	if err != nil {
		return nil, err
	}
	keyBytes, err := uuidToBytes(r.KeyID)
	if err != nil {
		return nil, err
	}
	keyType, err := packKeyType(r.KeyType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if r.Standard == StandardSMPTE {
		buf.WriteByte(smpteFormatTag)
	}
	buf.Write(keyRecordStructureID[:])
	buf.Write(r.SignerThumbprint[:])
	buf.Write(cplBytes[:])
	buf.Write(keyBytes[:])
	buf.Write(keyType[:])
	buf.Write(packTimeField(r.NotValidBefore))
	buf.Write(packTimeField(r.NotValidAfter))
	buf.Write(r.ContentKey.Bytes())

	return buf.Bytes(), nil
}

// DecodeKeyRecord decodes a KeyRecord from RSA-OAEP-decrypted plaintext.
// The standard is selected by the plaintext's length: the interop length
// decodes as interop, the framed length is attempted as SMPTE.
func DecodeKeyRecord(plaintext []byte) (KeyRecord, error) {
	switch len(plaintext) {
	case interopRecordLen:
		return decodeKeyRecordBody(StandardInterop, plaintext)
	case smpteRecordLen:
		if plaintext[0] != smpteFormatTag {
			return KeyRecord{}, &KDMFormatError{Detail: "unrecognised SMPTE KeyRecord format tag"}
		}
		return decodeKeyRecordBody(StandardSMPTE, plaintext[smpteFormatTagLen:])
	default:
		return KeyRecord{}, &KDMFormatError{Detail: fmt.Sprintf("key record plaintext length %d matches neither interop nor SMPTE layout", len(plaintext))}
	}
}

func decodeKeyRecordBody(standard Standard, body []byte) (KeyRecord, error) {
	if len(body) != interopRecordLen {
		return KeyRecord{}, &KDMFormatError{Detail: "key record body has unexpected length"}
	}

	off := 0
	readN := func(n int) []byte {
		b := body[off : off+n]
		off += n
		return b
	}

	_ = readN(keyRecordStructureIDLen) // structure_id: schema marker, not format-discriminating here
	var thumbprint [keyRecordThumbprintLen]byte
	copy(thumbprint[:], readN(keyRecordThumbprintLen))

	cplID, err := uuidFromBytes(readN(keyRecordUUIDLen))
	if err != nil {
		return KeyRecord{}, err
	}
	keyID, err := uuidFromBytes(readN(keyRecordUUIDLen))
	if err != nil {
		return KeyRecord{}, err
	}

	keyType := unpackKeyType(readN(keyRecordKeyTypeLen))

	notBefore, err := unpackTimeField(readN(keyRecordTimeFieldLen))
	if err != nil {
		return KeyRecord{}, err
	}
	notAfter, err := unpackTimeField(readN(keyRecordTimeFieldLen))
	if err != nil {
		return KeyRecord{}, err
	}

	contentKey := keyFromBytes(readN(keyRecordContentKeyLen))

	return KeyRecord{
		Standard:         standard,
		SignerThumbprint: thumbprint,
		CPLID:            cplID,
		KeyID:            keyID,
		KeyType:          keyType,
		NotValidBefore:   notBefore,
		NotValidAfter:    notAfter,
		ContentKey:       contentKey,
	}, nil
}

func uuidToBytes(s string) ([keyRecordUUIDLen]byte, error) {
	var out [keyRecordUUIDLen]byte
	id, err := uuid.Parse(stripURN(s))
	if err != nil {
		return out, newMiscError(fmt.Sprintf("invalid uuid %q in key record", s), err)
	}
	copy(out[:], id[:])
	return out, nil
}

func uuidFromBytes(b []byte) (string, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return "", newMiscError("invalid uuid bytes in key record", err)
	}
	return id.String(), nil
}

func packKeyType(tag string) ([keyRecordKeyTypeLen]byte, error) {
	var out [keyRecordKeyTypeLen]byte
	if len(tag) > keyRecordKeyTypeLen {
		return out, newMiscError(fmt.Sprintf("key type tag %q longer than 4 characters", tag), nil)
	}
	copy(out[:], tag)
	return out, nil
}

func unpackKeyType(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

func packTimeField(t LocalTime) []byte {
	out := make([]byte, keyRecordTimeFieldLen)
	// No milliseconds: with a ±HH:MM offset the string is exactly 25 bytes.
	s := t.AsString(false, true)
	copy(out, s)
	return out
}

func unpackTimeField(b []byte) (LocalTime, error) {
	end := 0
	for end < len(b) && b[end] != 0 {
		end++
	}
	return ParseLocalTime(string(b[:end]))
}

