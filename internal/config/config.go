package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdpp/internal/fileutil"
	"github.com/alnah/go-mdpp/internal/format"
	"github.com/alnah/go-mdpp/internal/security"
	"github.com/alnah/go-mdpp/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits for multi-tenant safety.
const (
	MaxTitleLength  = 200  // Document title
	MaxLangLength   = 35   // BCP 47 tag
	MaxStyleLength  = 100  // Style or highlight style name
	MaxURLLength    = 2048 // Browser limit
	MaxPathLength   = 4096 // PATH_MAX
	MaxDomainLength = 253  // RFC 1035
	MaxPluginCount  = 64
)

// configDirName is the directory searched under the user config dir.
const configDirName = "go-mdpp"

// Config holds all configuration for the mdpp command.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Format    string          `yaml:"format"`  // md, mdplus, mdsc (empty = detect from extension)
	Disable   []string        `yaml:"disable"` // feature toggles to turn off
	Plugins   []string        `yaml:"plugins"` // built-in names or manifest paths
	Assets    AssetsConfig    `yaml:"assets"`
	Security  security.Config `yaml:"security"`
	Render    RenderConfig    `yaml:"render"`
	Document  DocumentConfig  `yaml:"document"`
	Variables map[string]any  `yaml:"variables"` // merged under frontmatter variables
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	Standalone bool   `yaml:"standalone"` // Wrap fragments into complete pages
	JSON       bool   `yaml:"json"`       // Write side-channel records next to the HTML
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// RenderConfig defines conversion options.
type RenderConfig struct {
	SuppressErrors bool   `yaml:"suppressErrors"`
	ShowAIContext  bool   `yaml:"showAIContext"`
	KrokiURL       string `yaml:"krokiURL"`       // Empty = https://kroki.io
	HighlightStyle string `yaml:"highlightStyle"` // chroma style name (empty = github)
}

// DocumentConfig defines standalone page options.
type DocumentConfig struct {
	Title string    `yaml:"title"` // Empty = frontmatter title, then filename
	Lang  string    `yaml:"lang"`  // Empty = en
	Style string    `yaml:"style"` // Name of style in assets (empty = mdpp)
	TOC   TOCConfig `yaml:"toc"`
}

// TOCConfig defines table of contents options.
type TOCConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Title    string `yaml:"title"`    // Empty = no title above TOC
	MinDepth int    `yaml:"minDepth"` // 1-6, default 2
	MaxDepth int    `yaml:"maxDepth"` // 1-6, default 3
}

// Validate checks values and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if c.Format != "" {
		if _, err := format.Parse(c.Format); err != nil {
			return fmt.Errorf("%w: format: %w", ErrInvalidValue, err)
		}
	}

	features := format.DefaultFeatures()
	if err := features.Disable(c.Disable...); err != nil {
		return fmt.Errorf("%w: disable: %w", ErrInvalidValue, err)
	}

	if len(c.Plugins) > MaxPluginCount {
		return fmt.Errorf("%w: plugins: %d entries (max %d)", ErrInvalidValue, len(c.Plugins), MaxPluginCount)
	}
	for i, p := range c.Plugins {
		if err := validateFieldLength(fmt.Sprintf("plugins[%d]", i), p, MaxPathLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	// Validate security fields
	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("%w: security.profile: %w", ErrInvalidValue, err)
	}
	for i, d := range c.Security.AllowedDomains {
		if err := validateFieldLength(fmt.Sprintf("security.allowedDomains[%d]", i), d, MaxDomainLength); err != nil {
			return err
		}
	}
	for i, d := range c.Security.BlockedDomains {
		if err := validateFieldLength(fmt.Sprintf("security.blockedDomains[%d]", i), d, MaxDomainLength); err != nil {
			return err
		}
	}

	// Validate render fields
	if err := validateFieldLength("render.krokiURL", c.Render.KrokiURL, MaxURLLength); err != nil {
		return err
	}
	if c.Render.KrokiURL != "" {
		u, err := url.Parse(c.Render.KrokiURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: render.krokiURL: must be an http(s) URL, got %q", ErrInvalidValue, c.Render.KrokiURL)
		}
	}
	if err := validateFieldLength("render.highlightStyle", c.Render.HighlightStyle, MaxStyleLength); err != nil {
		return err
	}

	// Validate document fields
	if err := validateFieldLength("document.title", c.Document.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.lang", c.Document.Lang, MaxLangLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.style", c.Document.Style, MaxStyleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.toc.title", c.Document.TOC.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateDepth("document.toc.minDepth", c.Document.TOC.MinDepth); err != nil {
		return err
	}
	if err := validateDepth("document.toc.maxDepth", c.Document.TOC.MaxDepth); err != nil {
		return err
	}
	toc := c.Document.TOC
	if toc.MinDepth != 0 && toc.MaxDepth != 0 && toc.MinDepth > toc.MaxDepth {
		return fmt.Errorf("%w: document.toc: minDepth (%d) > maxDepth (%d)", ErrInvalidValue, toc.MinDepth, toc.MaxDepth)
	}

	return nil
}

// Features returns the feature toggles left after Disable.
// Validate reports unknown names, which are ignored here.
func (c *Config) Features() format.Features {
	f := format.DefaultFeatures()
	_ = f.Disable(c.Disable...)
	return f
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateDepth accepts 0 (unset) or a heading level.
func validateDepth(fieldName string, depth int) error {
	if depth != 0 && (depth < 1 || depth > 6) {
		return fmt.Errorf("%w: %s: must be between 1 and 6, got %d", ErrInvalidValue, fieldName, depth)
	}
	return nil
}

// DefaultConfig returns a neutral configuration: detected formats, the
// warn security profile and embedded assets.
func DefaultConfig() *Config {
	return &Config{
		Security: security.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdpp/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
