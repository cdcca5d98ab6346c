// Package registry stores plugin definitions and resolves directive names
// to component definitions.
package registry

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Log message and field names.
const (
	LogMsgRegistryCreated   = "component registry created"
	LogMsgPluginRegistered  = "plugin registered"
	LogMsgPluginOverwritten = "plugin re-registered, previous definition replaced"
	LogMsgPluginRemoved     = "plugin unregistered"
	LogFieldFramework       = "framework"
	LogFieldVersion         = "version"
	LogFieldComponents      = "components"
)

// Registry maps frameworks to plugin definitions. It is owned by one
// parser, safe for concurrent use, and outlives individual conversions.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*PluginDefinition
	order   []string
	logger  *zap.Logger
}

// New creates an empty registry. A nil logger discards output.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &Registry{
		plugins: make(map[string]*PluginDefinition),
		logger:  logger,
	}
}

// Register validates def and stores a copy of it. Re-registering a
// framework replaces the earlier definition, keeps its position in the
// lookup order and logs a warning.
func (r *Registry) Register(def *PluginDefinition) error {
	if err := Validate(def); err != nil {
		return err
	}
	stored := def.clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, exists := r.plugins[stored.Framework]; exists {
		r.logger.Warn(LogMsgPluginOverwritten,
			zap.String(LogFieldFramework, stored.Framework),
			zap.String(LogFieldVersion, previous.Version),
		)
	} else {
		r.order = append(r.order, stored.Framework)
	}
	r.plugins[stored.Framework] = stored
	r.logger.Debug(LogMsgPluginRegistered,
		zap.String(LogFieldFramework, stored.Framework),
		zap.String(LogFieldVersion, stored.Version),
		zap.Int(LogFieldComponents, len(stored.Components)),
	)
	return nil
}

// Unregister removes a framework. It reports whether one was removed.
func (r *Registry) Unregister(framework string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[framework]; !exists {
		return false
	}
	delete(r.plugins, framework)
	r.order = slices.DeleteFunc(r.order, func(f string) bool { return f == framework })
	r.logger.Debug(LogMsgPluginRemoved, zap.String(LogFieldFramework, framework))
	return true
}

// Plugin returns the definition registered for framework.
// The result is shared and must not be modified.
func (r *Registry) Plugin(framework string) (*PluginDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[framework]
	return p, ok
}

// Lookup resolves a component. With a framework, only that plugin is
// searched. Without one, plugins are scanned in registration order and
// the first exposing the name wins. The owning framework is returned.
func (r *Registry) Lookup(framework, component string) (*ComponentDefinition, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if framework != "" {
		p, ok := r.plugins[framework]
		if !ok {
			return nil, "", false
		}
		c, ok := p.Components[component]
		return c, framework, ok
	}
	for _, f := range r.order {
		if c, ok := r.plugins[f].Components[component]; ok {
			return c, f, true
		}
	}
	return nil, "", false
}

// Frameworks lists registered frameworks in registration order.
func (r *Registry) Frameworks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Components lists a framework's component names, sorted.
func (r *Registry) Components(framework string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[framework]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(p.Components))
	for name := range p.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Conflicts maps each component name defined by more than one plugin to
// those frameworks in registration order. Diagnostic only.
func (r *Registry) Conflicts() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := make(map[string][]string)
	for _, f := range r.order {
		for name := range r.plugins[f].Components {
			owners[name] = append(owners[name], f)
		}
	}
	for name, fs := range owners {
		if len(fs) < 2 {
			delete(owners, name)
		}
	}
	return owners
}

// LanguageOwner returns the first framework claiming a fenced code
// block language.
func (r *Registry) LanguageOwner(lang string) (string, bool) {
	if lang == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.order {
		for _, l := range r.plugins[f].CodeBlockLanguages {
			if strings.EqualFold(l, lang) {
				return f, true
			}
		}
	}
	return "", false
}

// Len returns the number of registered frameworks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
