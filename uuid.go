package dcpkdm

import (
	"strings"

	"github.com/google/uuid"
)

// uuidURNPrefix is the prefix the wire format requires on MessageId, KeyId,
// DeviceListIdentifier and CompositionPlaylistId.
const uuidURNPrefix = "urn:uuid:"

// newUUID returns a fresh random (v4) UUID in bare 36-char form.
func newUUID() string {
	return uuid.New().String()
}

// parseUUID validates s as a UUID, accepting it with or without the
// "urn:uuid:" prefix, and returns the bare 36-char form.
func parseUUID(s string) (string, error) {
	bare := strings.TrimPrefix(s, uuidURNPrefix)
	id, err := uuid.Parse(bare)
	if err != nil {
		return "", newMiscError("invalid UUID "+s, err)
	}
	return id.String(), nil
}

// withURN prefixes a bare UUID for wire output.
func withURN(id string) string {
	return uuidURNPrefix + id
}

// stripURN removes a "urn:uuid:" prefix if present, without validating the
// remainder. Used by the KeyRecord encoder, which validates the remainder
// itself when it parses the id.
func stripURN(s string) string {
	return strings.TrimPrefix(s, uuidURNPrefix)
}
