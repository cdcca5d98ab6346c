package registry

import (
	"errors"
	"fmt"

	"github.com/itsatony/go-cuserr"
)

// ErrInvalidManifest is the root of every manifest validation failure.
// Manifest problems are configuration mistakes and always fatal.
var ErrInvalidManifest = errors.New("invalid plugin manifest")

// Error code and metadata keys attached to manifest errors.
const (
	ErrCodeManifest   = "MDPP_MANIFEST"
	MetaKeyField      = "field"
	MetaKeyFramework  = "framework"
	MetaKeyComponent  = "component"
	ErrMsgMissing     = "required field is missing"
	ErrMsgInvalidName = "name must start with a letter and contain only letters, digits or hyphens"
	ErrMsgDecode      = "manifest could not be decoded"
	ErrMsgNilPlugin   = "plugin definition is nil"
)

// newManifestError builds a validation error that matches both
// errors.Is(err, ErrInvalidManifest) and errors.As(err, **cuserr.CustomError).
func newManifestError(msg, field, framework string) error {
	cerr := cuserr.NewValidationError(ErrCodeManifest, msg).
		WithMetadata(MetaKeyField, field).
		WithMetadata(MetaKeyFramework, framework)
	return fmt.Errorf("%w: %w", ErrInvalidManifest, cerr)
}

func newDecodeError(cause error) error {
	cerr := cuserr.WrapStdError(cause, ErrCodeManifest, ErrMsgDecode)
	return fmt.Errorf("%w: %w", ErrInvalidManifest, cerr)
}
