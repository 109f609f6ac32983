package dcpkdm

import (
	"io"

	"github.com/rs/zerolog"
)

// pkgLogger is used only around the openssl subprocess collaborator; the
// core encrypt/decrypt/parse/sign/validate
// operations never log, per the KDM core's no-logging contract (callers
// learn of failure exclusively through returned errors).
var pkgLogger = zerolog.New(io.Discard)

// SetLogger redirects the package's diagnostic logger. The default writes to
// io.Discard; pass zerolog.Nop() to silence it entirely again.
func SetLogger(l zerolog.Logger) {
	pkgLogger = l
}
