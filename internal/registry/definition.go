package registry

import (
	"maps"
	"slices"
)

// DefaultTag is used when a component does not name one.
const DefaultTag = "div"

// PluginDefinition is one framework and the components it exposes.
type PluginDefinition struct {
	Framework          string                          `json:"framework" yaml:"framework"`
	Version            string                          `json:"version,omitempty" yaml:"version,omitempty"`
	CSS                []string                        `json:"css,omitempty" yaml:"css,omitempty"`
	JS                 []string                        `json:"js,omitempty" yaml:"js,omitempty"`
	CodeBlockLanguages []string                        `json:"codeBlockLanguages,omitempty" yaml:"codeBlockLanguages,omitempty"`
	Components         map[string]*ComponentDefinition `json:"components" yaml:"components"`
}

// ComponentDefinition describes how a directive renders.
type ComponentDefinition struct {
	Tag               string              `json:"tag,omitempty" yaml:"tag,omitempty"`
	Classes           []string            `json:"classes,omitempty" yaml:"classes,omitempty"`
	Variants          map[string][]string `json:"variants,omitempty" yaml:"variants,omitempty"`
	WrapperTag        string              `json:"wrapperTag,omitempty" yaml:"wrapperTag,omitempty"`
	WrapperClasses    []string            `json:"wrapperClasses,omitempty" yaml:"wrapperClasses,omitempty"`
	DefaultAttributes map[string]string   `json:"defaultAttributes,omitempty" yaml:"defaultAttributes,omitempty"`
	AllowNesting      *bool               `json:"allowNesting,omitempty" yaml:"allowNesting,omitempty"` // nil means allowed
	Hidden            bool                `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	AIVisible         bool                `json:"aiVisible,omitempty" yaml:"aiVisible,omitempty"`
}

// NestingAllowed reports whether nested directives are permitted inside.
func (c *ComponentDefinition) NestingAllowed() bool {
	return c.AllowNesting == nil || *c.AllowNesting
}

// Bool returns a pointer to v, for AllowNesting literals.
func Bool(v bool) *bool {
	return &v
}

// clone returns a deep copy with defaults applied.
func (p *PluginDefinition) clone() *PluginDefinition {
	out := &PluginDefinition{
		Framework:          p.Framework,
		Version:            p.Version,
		CSS:                slices.Clone(p.CSS),
		JS:                 slices.Clone(p.JS),
		CodeBlockLanguages: slices.Clone(p.CodeBlockLanguages),
		Components:         make(map[string]*ComponentDefinition, len(p.Components)),
	}
	for name, c := range p.Components {
		if c == nil {
			c = &ComponentDefinition{}
		}
		out.Components[name] = c.clone()
	}
	return out
}

func (c *ComponentDefinition) clone() *ComponentDefinition {
	out := &ComponentDefinition{
		Tag:               c.Tag,
		Classes:           slices.Clone(c.Classes),
		WrapperTag:        c.WrapperTag,
		WrapperClasses:    slices.Clone(c.WrapperClasses),
		DefaultAttributes: maps.Clone(c.DefaultAttributes),
		Hidden:            c.Hidden,
		AIVisible:         c.AIVisible,
	}
	if out.Tag == "" {
		out.Tag = DefaultTag
	}
	if c.AllowNesting != nil {
		out.AllowNesting = Bool(*c.AllowNesting)
	}
	if c.Variants != nil {
		out.Variants = make(map[string][]string, len(c.Variants))
		for k, v := range c.Variants {
			out.Variants[k] = slices.Clone(v)
		}
	}
	return out
}
