package dcpkdm

import (
	"os"
)

// SaveXML writes an EncryptedKDM's canonical XML form to path, via a
// temp-file-then-rename so a reader never observes a partially written
// document.
func SaveXML(ek EncryptedKDM, path string) error {
	doc, err := ek.ToXML()
	if err != nil {
		return err
	}
	return writeFileAtomic(path, doc, 0o644)
}

// LoadXML reads and parses an EncryptedKDM from path.
func LoadXML(path string) (EncryptedKDM, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EncryptedKDM{}, newFileError(path, err)
	}
	return Parse(raw)
}

// writeFileAtomic commits a KDM document to path via a temp sibling: write,
// fsync, then rename. The fsync before the rename matters here — a KDM is a
// signed deliverable handed to a projection site, and a rename that lands in
// the directory before the data reaches disk can leave an empty or truncated
// document after a power loss, which a downstream media block would reject
// long after the producer is gone. A concurrent reader only ever observes
// the old document or the complete new one.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return newFileError(path, err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return newFileError(path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return newFileError(path, err)
	}
	return nil
}

// SavePlaintext persists a DecryptedKDM's human-readable summary to path.
// This is a producer-side convenience for inspecting what a KDM will
// contain before encryption; it is not a wire format and FromEncrypted has
// no corresponding loader.
func SavePlaintext(d DecryptedKDM, path string) error {
	return writeFileAtomic(path, []byte(d.Describe()), 0o600)
}
