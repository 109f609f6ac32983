package dcpkdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleKeyRecord(t *testing.T, standard Standard) KeyRecord {
	t.Helper()
	key, err := NewKey()
	require.NoError(t, err)

	notBefore, err := ParseLocalTime("2013-01-05T18:06:59Z")
	require.NoError(t, err)
	notAfter, err := ParseLocalTime("2013-02-05T18:06:59Z")
	require.NoError(t, err)

	var thumbprint [keyRecordThumbprintLen]byte
	for i := range thumbprint {
		thumbprint[i] = byte(i)
	}

	return KeyRecord{
		Standard:         standard,
		SignerThumbprint: thumbprint,
		CPLID:            newUUID(),
		KeyID:            newUUID(),
		KeyType:          "MDIK",
		NotValidBefore:   notBefore,
		NotValidAfter:    notAfter,
		ContentKey:       key,
	}
}

func TestKeyRecordInteropRoundTrip(t *testing.T) {
	rec := sampleKeyRecord(t, StandardInterop)
	plaintext, err := rec.Encode()
	require.NoError(t, err)
	assert.Len(t, plaintext, interopRecordLen)

	decoded, err := DecodeKeyRecord(plaintext)
	require.NoError(t, err)
	assert.Equal(t, StandardInterop, decoded.Standard)
	assert.Equal(t, rec.CPLID, decoded.CPLID)
	assert.Equal(t, rec.KeyID, decoded.KeyID)
	assert.Equal(t, rec.KeyType, decoded.KeyType)
	assert.Equal(t, rec.ContentKey.Hex(), decoded.ContentKey.Hex())
	assert.Equal(t, rec.SignerThumbprint, decoded.SignerThumbprint)
	assert.True(t, rec.NotValidBefore.Equal(decoded.NotValidBefore))
	assert.True(t, rec.NotValidAfter.Equal(decoded.NotValidAfter))
}

func TestKeyRecordSMPTERoundTrip(t *testing.T) {
	rec := sampleKeyRecord(t, StandardSMPTE)
	plaintext, err := rec.Encode()
	require.NoError(t, err)
	assert.Len(t, plaintext, smpteRecordLen)
	assert.Equal(t, smpteFormatTag, plaintext[0])

	decoded, err := DecodeKeyRecord(plaintext)
	require.NoError(t, err)
	assert.Equal(t, StandardSMPTE, decoded.Standard)
	assert.Equal(t, rec.KeyID, decoded.KeyID)
}

func TestDecodeKeyRecordRejectsWrongLength(t *testing.T) {
	_, err := DecodeKeyRecord(make([]byte, 10))
	require.Error(t, err)
	var fmtErr *KDMFormatError
	assert.ErrorAs(t, err, &fmtErr)
}

func TestDecodeKeyRecordRejectsBadSMPTEFormatTag(t *testing.T) {
	rec := sampleKeyRecord(t, StandardSMPTE)
	plaintext, err := rec.Encode()
	require.NoError(t, err)
	plaintext[0] = 0xFF

	_, err = DecodeKeyRecord(plaintext)
	require.Error(t, err)
}

func TestPackKeyTypeRejectsOverlong(t *testing.T) {
	_, err := packKeyType("TOOLONG")
	require.Error(t, err)
}

func TestUnpackKeyTypeTrimsTrailingZeroes(t *testing.T) {
	packed, err := packKeyType("MDAK")
	require.NoError(t, err)
	assert.Equal(t, "MDAK", unpackKeyType(packed[:]))

	short, err := packKeyType("MDK")
	require.NoError(t, err)
	assert.Equal(t, byte(0), short[3])
	assert.Equal(t, "MDK", unpackKeyType(short[:]))
}
