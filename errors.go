package dcpkdm

import "fmt"

// KDMFormatError reports a malformed DCinemaSecurityMessage document: an XML
// parse failure, a missing required element, or a malformed ForensicMarkFlag.
type KDMFormatError struct {
	Detail string
	Err    error
}

func (e *KDMFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("KDM format error: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("KDM format error: %s", e.Detail)
}

func (e *KDMFormatError) Unwrap() error { return e.Err }

func newKDMFormatError(detail string, err error) *KDMFormatError {
	return &KDMFormatError{Detail: detail, Err: err}
}

// KDMDecryptionError reports an RSA-OAEP decrypt failure, or a plaintext
// whose length matches neither the interop nor the SMPTE KeyRecord layout.
type KDMDecryptionError struct {
	CipherLen  int
	ModulusMax int
}

func (e *KDMDecryptionError) Error() string {
	return fmt.Sprintf("KDM decryption error: ciphertext length %d exceeds modulus-bounded maximum %d, or plaintext length did not match a known key record layout", e.CipherLen, e.ModulusMax)
}

// CertificateChainError reports that a chain is not orderable, or that
// CertificateChain.Validate rejected it.
type CertificateChainError struct {
	Reason string
}

func (e *CertificateChainError) Error() string {
	return fmt.Sprintf("certificate chain error: %s", e.Reason)
}

// MiscError covers malformed PEM, mixed standards within one KDM, UUID
// parse failures, and CPL-id disagreement between keys.
type MiscError struct {
	Msg string
	Err error
}

func (e *MiscError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *MiscError) Unwrap() error { return e.Err }

func newMiscError(msg string, err error) *MiscError {
	return &MiscError{Msg: msg, Err: err}
}

// TimeFormatError reports a time string that did not match the expected
// xs:dateTime or ASN.1 UTCTime/GeneralizedTime pattern.
type TimeFormatError struct {
	Value string
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("time format error: %q does not match the expected pattern", e.Value)
}

// FileError reports an I/O failure on load or save of a KDM document.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error: %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func newFileError(path string, err error) *FileError {
	return &FileError{Path: path, Err: err}
}
