package assets

import "github.com/alnah/go-mdpp/internal/registry"

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a built-in CSS style by name.
// The name should not include the .css extension or path components.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads a built-in HTML template by name.
// The name should not include the .html extension or path components.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// LoadPlugin loads a built-in plugin manifest by name.
func LoadPlugin(name string) (*registry.PluginDefinition, error) {
	return defaultLoader.LoadPlugin(name)
}

// BuiltinPlugins lists the names of the embedded plugin manifests.
func BuiltinPlugins() []string {
	return defaultLoader.Plugins()
}
