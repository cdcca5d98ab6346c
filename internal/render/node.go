package render

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/yuin/goldmark/ast"
)

var (
	KindElement       = ast.NewNodeKind("Element")
	KindInlineElement = ast.NewNodeKind("InlineElement")
	KindRaw           = ast.NewNodeKind("Raw")
	KindRawInline     = ast.NewNodeKind("RawInline")
)

var (
	tagPattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)
	attrPattern = regexp.MustCompile(`^[A-Za-z_:@][A-Za-z0-9_:.@-]*$`)
)

// unsafeTags never come out of component definitions.
var unsafeTags = map[string]struct{}{
	"script": {}, "style": {}, "iframe": {}, "object": {}, "embed": {},
	"frame": {}, "frameset": {}, "base": {}, "meta": {},
}

var voidTags = map[string]struct{}{
	"area": {}, "br": {}, "col": {}, "hr": {}, "img": {}, "input": {},
	"link": {}, "source": {}, "track": {}, "wbr": {},
}

// safeTag returns tag when it is a well-formed, allowed element name,
// otherwise fallback.
func safeTag(tag, fallback string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if !tagPattern.MatchString(tag) {
		return fallback
	}
	if _, bad := unsafeTags[tag]; bad {
		return fallback
	}
	return tag
}

// Property is one emitted attribute. Bool attributes render without a value.
type Property struct {
	Key   string
	Value string
	Bool  bool
}

// Properties are the rendered attributes of an element. ID and Classes are
// emitted first, then Attrs in insertion order.
type Properties struct {
	ID      string
	Classes []string
	Attrs   []Property
}

// AddClass appends classes, skipping ones already present.
func (p *Properties) AddClass(classes ...string) {
	for _, c := range classes {
		if c != "" && !slices.Contains(p.Classes, c) {
			p.Classes = append(p.Classes, c)
		}
	}
}

// Set stores a valued attribute, replacing an earlier one with the same key.
func (p *Properties) Set(key, value string) {
	p.set(Property{Key: key, Value: value})
}

// SetBool stores a boolean attribute.
func (p *Properties) SetBool(key string) {
	p.set(Property{Key: key, Bool: true})
}

func (p *Properties) set(prop Property) {
	for i := range p.Attrs {
		if p.Attrs[i].Key == prop.Key {
			p.Attrs[i] = prop
			return
		}
	}
	p.Attrs = append(p.Attrs, prop)
}

// Get returns the value of attribute key.
func (p *Properties) Get(key string) (Property, bool) {
	for _, a := range p.Attrs {
		if a.Key == key {
			return a, true
		}
	}
	return Property{}, false
}

// Element is a resolved block-level directive.
type Element struct {
	ast.BaseBlock
	Tag     string
	Props   Properties
	Caption string // escaped on output, written before children
}

// NewElement returns an Element with a sanitized tag.
func NewElement(tag string, props Properties) *Element {
	return &Element{Tag: safeTag(tag, "div"), Props: props}
}

func (n *Element) Kind() ast.NodeKind { return KindElement }

func (n *Element) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, dumpFields(n.Tag, &n.Props), nil)
}

// InlineElement is a resolved text directive.
type InlineElement struct {
	ast.BaseInline
	Tag     string
	Props   Properties
	Caption string
}

// NewInlineElement returns an InlineElement with a sanitized tag.
func NewInlineElement(tag string, props Properties) *InlineElement {
	return &InlineElement{Tag: safeTag(tag, "span"), Props: props}
}

func (n *InlineElement) Kind() ast.NodeKind { return KindInlineElement }

func (n *InlineElement) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, dumpFields(n.Tag, &n.Props), nil)
}

// Raw is pre-rendered block HTML produced by the resolver itself.
type Raw struct {
	ast.BaseBlock
	HTML string
}

func (n *Raw) Kind() ast.NodeKind { return KindRaw }

func (n *Raw) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"HTML": n.HTML}, nil)
}

// RawInline is pre-rendered inline HTML.
type RawInline struct {
	ast.BaseInline
	HTML string
}

func (n *RawInline) Kind() ast.NodeKind { return KindRawInline }

func (n *RawInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"HTML": n.HTML}, nil)
}

func dumpFields(tag string, p *Properties) map[string]string {
	return map[string]string{
		"Tag":     tag,
		"ID":      p.ID,
		"Classes": strings.Join(p.Classes, " "),
		"Attrs":   fmt.Sprint(p.Attrs),
	}
}

// moveChildren re-parents every child of from onto to, keeping order.
func moveChildren(from, to ast.Node) {
	for c := from.FirstChild(); c != nil; {
		next := c.NextSibling()
		to.AppendChild(to, c)
		c = next
	}
}
