package mdpp

import (
	"github.com/alnah/go-mdpp/internal/assets"
	"github.com/alnah/go-mdpp/internal/registry"
)

// RegisterPlugin validates def and adds it to the parser's registry.
// Re-registering a framework replaces it and logs a warning.
func (p *Parser) RegisterPlugin(def *PluginDefinition) error {
	return p.registry.Register(def)
}

// LoadPlugin decodes a JSON manifest and registers it.
func (p *Parser) LoadPlugin(data []byte) (*PluginDefinition, error) {
	def, err := registry.ParseManifest(data)
	if err != nil {
		return nil, err
	}
	return def, p.RegisterPlugin(def)
}

// LoadPluginYAML decodes a YAML manifest and registers it.
func (p *Parser) LoadPluginYAML(data []byte) (*PluginDefinition, error) {
	def, err := registry.ParseManifestYAML(data)
	if err != nil {
		return nil, err
	}
	return def, p.RegisterPlugin(def)
}

// LoadBuiltinPlugin registers a plugin shipped with the module, or its
// override from the asset path.
func (p *Parser) LoadBuiltinPlugin(name string) error {
	def, err := p.assets.LoadPlugin(name)
	if err != nil {
		return err
	}
	return p.RegisterPlugin(def)
}

// Frameworks lists the registered frameworks in lookup order.
func (p *Parser) Frameworks() []string {
	return p.registry.Frameworks()
}

// Components lists the component names of a registered framework.
func (p *Parser) Components(framework string) []string {
	return p.registry.Components(framework)
}

// Registry exposes the parser's component registry.
func (p *Parser) Registry() *registry.Registry {
	return p.registry
}

// BuiltinPlugins lists the plugins shipped with the module.
func BuiltinPlugins() []string {
	return assets.BuiltinPlugins()
}
