package render

import (
	"slices"
	"strings"

	"github.com/alnah/go-mdpp/internal/directive"
	"github.com/alnah/go-mdpp/internal/registry"
)

// Built is the outcome of element building: the element itself and, when
// the component defines one, the wrapper around it.
type Built struct {
	Tag     string
	Props   Properties
	Wrapper *Wrapper
}

// Wrapper is the outer element of a wrapped component.
type Wrapper struct {
	Tag   string
	Props Properties
}

// Build turns a component definition and the directive's attributes into
// element properties. def may be nil, in which case the element is built
// from the attributes alone with fallbackTag.
//
// Default attributes are applied before user attributes so the user wins.
// The variant and type attributes select variant classes only when a
// definition exists; otherwise they pass through as plain attributes.
// A default variant applies when the user gives none. A default type is
// emitted as an HTML attribute and adds classes only for tokens naming a
// variant.
func Build(def *registry.ComponentDefinition, defaults, attrs directive.Attrs, fallbackTag string) Built {
	b := Built{Tag: safeTag(fallbackTag, "div")}
	if def == nil {
		applyAttrs(&b.Props, defaults)
		applyAttrs(&b.Props, attrs)
		return b
	}

	if def.Tag != "" {
		b.Tag = safeTag(def.Tag, b.Tag)
	}
	b.Props.AddClass(def.Classes...)
	b.Props.AddClass(variantClasses(def, defaults, attrs)...)

	defaults = defaults.Without("variant")
	if attrs.Has("type") {
		defaults = defaults.Without("type")
	}
	applyAttrs(&b.Props, defaults)
	applyAttrs(&b.Props, attrs.Without("variant", "type"))

	if def.WrapperTag != "" {
		w := &Wrapper{Tag: safeTag(def.WrapperTag, "div")}
		w.Props.AddClass(def.WrapperClasses...)
		b.Wrapper = w
	}
	return b
}

// variantClasses resolves the space-separated tokens of variant and type,
// user values first and defaults for keys the user left out. A user type
// token naming no variant synthesizes "<first base class>-<token>".
func variantClasses(def *registry.ComponentDefinition, defaults, attrs directive.Attrs) []string {
	var out []string
	variant, ok := attrs.Get("variant")
	if !ok {
		variant, _ = defaults.Get("variant")
	}
	for _, tok := range strings.Fields(variant) {
		out = append(out, def.Variants[tok]...)
	}

	typ, fromUser := attrs.Get("type")
	if !fromUser {
		typ, _ = defaults.Get("type")
	}
	for _, tok := range strings.Fields(typ) {
		if classes, ok := def.Variants[tok]; ok {
			out = append(out, classes...)
			continue
		}
		if fromUser && len(def.Classes) > 0 {
			out = append(out, def.Classes[0]+"-"+tok)
		}
	}
	return out
}

func applyAttrs(p *Properties, attrs directive.Attrs) {
	for _, a := range attrs {
		switch {
		case a.Key == "class" || a.Key == "className":
			p.AddClass(strings.Fields(a.Value)...)
		case a.Key == "id":
			p.ID = a.Value
		case strings.HasPrefix(a.Key, ".") && len(a.Key) > 1:
			p.AddClass(a.Key[1:])
		case strings.HasPrefix(a.Key, "#") && len(a.Key) > 1:
			p.ID = a.Key[1:]
		case a.Value == "" || a.Value == "true":
			p.SetBool(a.Key)
		default:
			p.Set(a.Key, a.Value)
		}
	}
}

// defaultAttrs orders a definition's default attributes by key.
func defaultAttrs(m map[string]string) directive.Attrs {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make(directive.Attrs, 0, len(keys))
	for _, k := range keys {
		out = append(out, directive.Attr{Key: k, Value: m[k]})
	}
	return out
}
