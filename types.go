package mdpp

import (
	"github.com/alnah/go-mdpp/internal/format"
	"github.com/alnah/go-mdpp/internal/placeholder"
	"github.com/alnah/go-mdpp/internal/registry"
	"github.com/alnah/go-mdpp/internal/render"
	"github.com/alnah/go-mdpp/internal/security"
)

// Plugin definitions.
type (
	PluginDefinition    = registry.PluginDefinition
	ComponentDefinition = registry.ComponentDefinition
)

// Side-channel records.
type (
	AIContext   = render.AIContext
	Script      = render.Script
	Style       = render.Style
	Placeholder = placeholder.Placeholder
	RenderError = render.RenderError
)

// Formats and capabilities.
type (
	FileFormat   = format.FileFormat
	Capabilities = format.Capabilities
	Features     = format.Features
)

// File formats.
const (
	FormatMD     = format.MD
	FormatMDPlus = format.MDPlus
	FormatMDSC   = format.MDSC
)

// SecurityConfig controls how blocked content is reported and which asset
// domains are trusted.
type SecurityConfig = security.Config

// Security profiles.
const (
	ProfileStrict = security.ProfileStrict
	ProfileWarn   = security.ProfileWarn
	ProfileExpert = security.ProfileExpert
	ProfileCustom = security.ProfileCustom
)

// PlaceholderStatus tracks a placeholder through downstream generation.
type PlaceholderStatus = placeholder.Status

// Placeholder statuses accepted by ReplacePlaceholder.
const (
	StatusCompleted = placeholder.StatusCompleted
	StatusError     = placeholder.StatusError
)

// Input is one document to convert.
type Input struct {
	Markdown    string
	Filename    string     // drives format detection when Format is empty
	Format      FileFormat // explicit override
	Features    *Features  // nil enables every stage the format allows
	Frontmatter map[string]any

	// Variables for {{name}} substitution in mdsc documents. When nil,
	// a "variables" map in Frontmatter is used instead.
	Variables map[string]any

	ShowAIContext  bool // show hidden AI context blocks
	SuppressErrors bool // omit error banners from HTML

	// SourceDir and OutputDir re-anchor relative links when the HTML is
	// written somewhere other than next to its source.
	SourceDir string
	OutputDir string
}

// variables returns the substitution map for in.
func (in *Input) variables() map[string]any {
	if in.Variables != nil {
		return in.Variables
	}
	if vars, ok := in.Frontmatter["variables"].(map[string]any); ok {
		return vars
	}
	return nil
}

// Result is the outcome of Convert.
type Result struct {
	HTML        string         `json:"html"`
	AIContexts  []AIContext    `json:"aiContext"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Errors      []RenderError  `json:"errors"`
}

// Assets lists the trusted stylesheet and script URLs of the plugins a
// document used.
type Assets struct {
	CSS []string `json:"css"`
	JS  []string `json:"js"`
}

// FullResult is the outcome of ConvertFull.
type FullResult struct {
	Result
	Scripts      []Script      `json:"scripts"`
	Placeholders []Placeholder `json:"placeholders"`
	Styles       []Style       `json:"styles"`
	Format       FileFormat    `json:"format"`
	Capabilities Capabilities  `json:"-"`
	Assets       Assets        `json:"assets"`
}

// DocumentOptions configure Standalone.
type DocumentOptions struct {
	Title string
	Lang  string
	Style string // stylesheet name; empty selects the built-in style
	TOC   *TOCOptions
}

// TOCOptions configure the table of contents of a standalone document.
// A nil TOC disables it.
type TOCOptions struct {
	Title    string
	MinDepth int // default 2
	MaxDepth int // default 3
}
