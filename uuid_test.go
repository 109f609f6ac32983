package dcpkdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUUIDAcceptsWithAndWithoutPrefix(t *testing.T) {
	const bare = "01234567-89ab-cdef-0123-456789abcdef"

	got, err := parseUUID(bare)
	require.NoError(t, err)
	assert.Equal(t, bare, got)

	got, err = parseUUID("urn:uuid:" + bare)
	require.NoError(t, err)
	assert.Equal(t, bare, got)
}

func TestParseUUIDRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "urn:uuid:", "not-a-uuid", "urn:uuid:not-a-uuid"} {
		_, err := parseUUID(bad)
		require.Error(t, err)
	}
}

func TestWithURNAndStripURN(t *testing.T) {
	const bare = "01234567-89ab-cdef-0123-456789abcdef"
	assert.Equal(t, "urn:uuid:"+bare, withURN(bare))
	assert.Equal(t, bare, stripURN(withURN(bare)))
	assert.Equal(t, bare, stripURN(bare))
}

func TestNewUUIDIsBareForm(t *testing.T) {
	id := newUUID()
	assert.Len(t, id, 36)
	_, err := parseUUID(id)
	assert.NoError(t, err)
}
