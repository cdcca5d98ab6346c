package mdpp

import (
	"github.com/alnah/go-mdpp/internal/directive"
	"github.com/alnah/go-mdpp/internal/format"
	"github.com/alnah/go-mdpp/internal/placeholder"
	"github.com/alnah/go-mdpp/internal/security"
)

// DefaultSecurityConfig returns the warn profile with no domain lists.
func DefaultSecurityConfig() SecurityConfig {
	return security.DefaultConfig()
}

// DefaultFeatures enables every feature toggle.
func DefaultFeatures() Features {
	return format.DefaultFeatures()
}

// DetectFormat maps a filename extension to a format. Unknown and empty
// names select mdplus.
func DetectFormat(filename string) FileFormat {
	return format.Detect(filename)
}

// ParseFormat parses an explicit format name.
func ParseFormat(name string) (FileFormat, error) {
	return format.Parse(name)
}

// CapabilitiesFor returns the stages a format enables.
func CapabilitiesFor(f FileFormat) Capabilities {
	return format.For(f)
}

// InterpolatePrompt substitutes {{name}} and {{dotted.path}} tokens.
// Strings are inserted verbatim, maps and slices as compact JSON, and
// unknown tokens are kept as written.
func InterpolatePrompt(prompt string, vars map[string]any) string {
	return placeholder.Interpolate(prompt, vars)
}

// ExtractPlaceholders recovers placeholders from rendered HTML.
func ExtractPlaceholders(html string) []Placeholder {
	return placeholder.Extract(html)
}

// ReplacePlaceholder swaps the content of the placeholder with id and sets
// its status to completed or error. Every other byte is left intact.
// Returns ErrPlaceholderNotFound when no element carries id.
func ReplacePlaceholder(html, id, content string, status PlaceholderStatus) (string, error) {
	return placeholder.Replace(html, id, content, status)
}

// Attribute is one directive attribute.
type Attribute = directive.Attr

// Blocked records an attribute removed by Filter.
type Blocked = security.Blocked

// Filter removes event handlers, script-capable URLs and unsafe style
// values from attrs. Filtering the output again removes nothing.
func Filter(attrs []Attribute) ([]Attribute, []Blocked) {
	return security.Filter(attrs)
}
