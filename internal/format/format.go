// Package format maps MD++ file formats to the feature set each one enables.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for format and feature names.
var (
	ErrUnknownFormat  = errors.New("unknown file format")
	ErrUnknownFeature = errors.New("unknown feature")
)

// FileFormat identifies the dialect a document is written in.
type FileFormat string

const (
	MD     FileFormat = "md"     // CommonMark + GFM with math, diagrams and AI context
	MDPlus FileFormat = "mdplus" // adds components, callouts and AI placeholders
	MDSC   FileFormat = "mdsc"   // adds scripts, styles and variables
)

// Default is used when neither a filename nor an explicit format decides.
const Default = MDPlus

// Capabilities is the immutable set of stages wired into one conversion.
// It is comparable so it can key caches.
type Capabilities struct {
	GFM            bool
	Math           bool
	Mermaid        bool
	Components     bool
	Callouts       bool
	AIContext      bool
	AIPlaceholders bool
	Scripts        bool
	Styles         bool
	Variables      bool
}

var table = map[FileFormat]Capabilities{
	MD: {
		GFM:       true,
		Math:      true,
		Mermaid:   true,
		AIContext: true,
	},
	MDPlus: {
		GFM:            true,
		Math:           true,
		Mermaid:        true,
		Components:     true,
		Callouts:       true,
		AIContext:      true,
		AIPlaceholders: true,
	},
	MDSC: {
		GFM:            true,
		Math:           true,
		Mermaid:        true,
		Components:     true,
		Callouts:       true,
		AIContext:      true,
		AIPlaceholders: true,
		Scripts:        true,
		Styles:         true,
		Variables:      true,
	},
}

var extensions = map[string]FileFormat{
	".md":       MD,
	".markdown": MD,
	".mdp":      MDPlus,
	".mdplus":   MDPlus,
	".mdpp":     MDPlus,
	".mdsc":     MDSC,
}

// For returns the capability table entry for f.
// Unknown formats get the Default entry.
func For(f FileFormat) Capabilities {
	if c, ok := table[f]; ok {
		return c
	}
	return table[Default]
}

// Parse converts a user-supplied name into a FileFormat.
func Parse(name string) (FileFormat, error) {
	f := FileFormat(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := table[f]; !ok {
		return "", fmt.Errorf("%w: %q (must be md, mdplus, or mdsc)", ErrUnknownFormat, name)
	}
	return f, nil
}

// Detect infers the format from a filename extension.
func Detect(filename string) FileFormat {
	if f, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return f
	}
	return Default
}

// Extensions lists every recognized document extension.
func Extensions() []string {
	return []string{".md", ".markdown", ".mdp", ".mdplus", ".mdpp", ".mdsc"}
}

// Resolve picks the format for a conversion: explicit wins over filename.
func Resolve(explicit FileFormat, filename string) FileFormat {
	if _, ok := table[explicit]; ok {
		return explicit
	}
	if filename != "" {
		return Detect(filename)
	}
	return Default
}

// Features are caller toggles layered over the format table.
// A stage runs only when both the format and the toggle allow it.
type Features struct {
	GFM            bool `yaml:"gfm"`
	Math           bool `yaml:"math"`
	Mermaid        bool `yaml:"mermaid"`
	Components     bool `yaml:"components"`
	Callouts       bool `yaml:"callouts"`
	AIContext      bool `yaml:"aiContext"`
	AIPlaceholders bool `yaml:"aiPlaceholders"`
	Scripts        bool `yaml:"scripts"`
	Styles         bool `yaml:"styles"`
	Variables      bool `yaml:"variables"`
}

// DefaultFeatures enables every toggle.
func DefaultFeatures() Features {
	return Features{
		GFM:            true,
		Math:           true,
		Mermaid:        true,
		Components:     true,
		Callouts:       true,
		AIContext:      true,
		AIPlaceholders: true,
		Scripts:        true,
		Styles:         true,
		Variables:      true,
	}
}

// Effective intersects the format table with the feature toggles.
// A nil Features keeps the table as is.
func Effective(f FileFormat, features *Features) Capabilities {
	c := For(f)
	if features == nil {
		return c
	}
	return Capabilities{
		GFM:            c.GFM && features.GFM,
		Math:           c.Math && features.Math,
		Mermaid:        c.Mermaid && features.Mermaid,
		Components:     c.Components && features.Components,
		Callouts:       c.Callouts && features.Callouts,
		AIContext:      c.AIContext && features.AIContext,
		AIPlaceholders: c.AIPlaceholders && features.AIPlaceholders,
		Scripts:        c.Scripts && features.Scripts,
		Styles:         c.Styles && features.Styles,
		Variables:      c.Variables && features.Variables,
	}
}

// Disable turns off the named toggles. Names match the yaml tags.
func (f *Features) Disable(names ...string) error {
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case "gfm":
			f.GFM = false
		case "math":
			f.Math = false
		case "mermaid":
			f.Mermaid = false
		case "components":
			f.Components = false
		case "callouts":
			f.Callouts = false
		case "aiContext":
			f.AIContext = false
		case "aiPlaceholders":
			f.AIPlaceholders = false
		case "scripts":
			f.Scripts = false
		case "styles":
			f.Styles = false
		case "variables":
			f.Variables = false
		case "":
		default:
			return fmt.Errorf("%w %q", ErrUnknownFeature, name)
		}
	}
	return nil
}
