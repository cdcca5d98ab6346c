package assets

import (
	"fmt"
	"regexp"
	"strings"
)

// maxAssetNameLength bounds names taken from flags and config.
const maxAssetNameLength = 64

// pluginName matches the framework names the registry accepts, so a
// manifest found by name can be registered under it.
var pluginName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// ValidateAssetName checks that name addresses a single file of kind k.
// Names never carry a directory, an extension or surrounding spaces.
func ValidateAssetName(k Kind, name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty %s name", ErrInvalidAssetName, k.singular())
	case len(name) > maxAssetNameLength:
		return fmt.Errorf("%w: %s name exceeds %d chars", ErrInvalidAssetName, k.singular(), maxAssetNameLength)
	case strings.ContainsAny(name, "/\\.\x00") || strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	case k == KindPlugin && !pluginName.MatchString(name):
		return fmt.Errorf("%w: plugin %q must start with a letter and use letters, digits or hyphens", ErrInvalidAssetName, name)
	}
	return nil
}
