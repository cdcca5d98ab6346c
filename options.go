package mdpp

import (
	"go.uber.org/zap"
)

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSecurity sets the security configuration.
func WithSecurity(cfg SecurityConfig) Option {
	return func(p *Parser) {
		p.cfg.security = cfg
	}
}

// WithPlugins registers plugin definitions at construction.
// Later definitions replace earlier ones with the same framework.
func WithPlugins(defs ...*PluginDefinition) Option {
	return func(p *Parser) {
		p.cfg.plugins = append(p.cfg.plugins, defs...)
	}
}

// WithBuiltinPlugins registers built-in plugins by name, such as
// "bootstrap" or "tailwind". A custom asset path may override them.
func WithBuiltinPlugins(names ...string) Option {
	return func(p *Parser) {
		p.cfg.builtins = append(p.cfg.builtins, names...)
	}
}

// WithAssetPath sets a directory whose styles/, templates/ and plugins/
// override the embedded assets.
func WithAssetPath(dir string) Option {
	return func(p *Parser) {
		p.cfg.assetPath = dir
	}
}

// WithKrokiURL sets the Kroki server used to build diagram image URLs.
// An empty URL leaves Kroki diagrams as code blocks.
func WithKrokiURL(url string) Option {
	return func(p *Parser) {
		p.cfg.krokiURL = url
		p.cfg.krokiSet = true
	}
}

// WithHighlightStyle sets the chroma style used by Standalone.
func WithHighlightStyle(name string) Option {
	return func(p *Parser) {
		p.cfg.highlightStyle = name
	}
}
