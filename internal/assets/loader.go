package assets

import "github.com/alnah/go-mdpp/internal/registry"

// AssetLoader defines the contract for loading styles, templates and
// plugin manifests.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTemplate(name string) (string, error)

	// LoadPlugin loads and validates a plugin manifest by name (without
	// extension). Returns ErrPluginNotFound if no manifest exists, or an
	// error matching registry.ErrInvalidManifest if it fails validation.
	LoadPlugin(name string) (*registry.PluginDefinition, error)
}
