package directive

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Header is the part shared by every directive kind.
type Header struct {
	Name        string
	Label       string // raw label source, brackets stripped
	HasLabel    bool
	Attrs       Attrs
	Line        int   // 1-based line in the preprocessed document
	SyntaxError error // attribute or label grammar problem, if any
}

// Node is the closed set of directive nodes: *ContainerDirective,
// *LeafDirective and *TextDirective. Switch on the concrete type.
type Node interface {
	ast.Node
	Directive() *Header
	directive()
}

var (
	KindContainerDirective = ast.NewNodeKind("ContainerDirective")
	KindLeafDirective      = ast.NewNodeKind("LeafDirective")
	KindTextDirective      = ast.NewNodeKind("TextDirective")
)

// ContainerDirective is `:::name[label]{attrs}` ... `:::`.
// Its label, when present, is parsed as the first child paragraph.
type ContainerDirective struct {
	ast.BaseBlock
	Header
	Fence     int
	labelNode ast.Node
	body      text.Segments
}

// LeafDirective is `::name[label]{attrs}` on a single line.
// Its children are the inline-parsed label.
type LeafDirective struct {
	ast.BaseBlock
	Header
}

// TextDirective is `:name[label]{attrs}` inside a paragraph.
// Its children are the label text.
type TextDirective struct {
	ast.BaseInline
	Header
}

func (n *ContainerDirective) Kind() ast.NodeKind { return KindContainerDirective }
func (n *LeafDirective) Kind() ast.NodeKind      { return KindLeafDirective }
func (n *TextDirective) Kind() ast.NodeKind      { return KindTextDirective }

func (n *ContainerDirective) Directive() *Header { return &n.Header }
func (n *LeafDirective) Directive() *Header      { return &n.Header }
func (n *TextDirective) Directive() *Header      { return &n.Header }

func (*ContainerDirective) directive() {}
func (*LeafDirective) directive()      {}
func (*TextDirective) directive()      {}

// LabelNode returns the paragraph holding the container label, or nil.
func (n *ContainerDirective) LabelNode() ast.Node {
	if n.labelNode != nil && n.labelNode.Parent() == n {
		return n.labelNode
	}
	return nil
}

// Body returns the source lines between the opening and closing fences
// exactly as written, nested directives and markdown markers included.
func (n *ContainerDirective) Body(source []byte) string {
	var b strings.Builder
	for i := 0; i < n.body.Len(); i++ {
		seg := n.body.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

func (n *ContainerDirective) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, n.dumpFields(), nil)
}

func (n *LeafDirective) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, n.dumpFields(), nil)
}

func (n *TextDirective) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, n.dumpFields(), nil)
}

func (h *Header) dumpFields() map[string]string {
	m := map[string]string{
		"Name": h.Name,
		"Line": strconv.Itoa(h.Line),
	}
	if h.HasLabel {
		m["Label"] = h.Label
	}
	if len(h.Attrs) > 0 {
		m["Attrs"] = h.Attrs.String()
	}
	if h.SyntaxError != nil {
		m["SyntaxError"] = h.SyntaxError.Error()
	}
	return m
}

// IsBlock reports whether n renders as a block element.
func IsBlock(n Node) bool {
	switch n.(type) {
	case *ContainerDirective, *LeafDirective:
		return true
	default:
		return false
	}
}

// SplitName splits a canonical name on its first underscore into
// framework and component. Names without an underscore have no framework.
func SplitName(name string) (framework, component string) {
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// DisplayName turns a canonical name back into its authored form.
func DisplayName(name string) string {
	framework, component := SplitName(name)
	if framework == "" {
		return component
	}
	return framework + ":" + component
}
