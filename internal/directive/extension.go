// Package directive adds the generic directive grammar to goldmark:
//
//	:::name[label]{key="value" .class #id flag}   container (3+ colons)
//	::name[label]{...}                             leaf
//	:name[label]{...}                              text
//
// The parsers only recognize syntax. Meaning is assigned later by an AST
// transformer; directives nobody resolves render as neutral wrappers.
package directive

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

type extension struct{}

// Extension registers the directive parsers and the fallback renderer.
var Extension goldmark.Extender = &extension{}

func (e *extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(NewBlockParser(), priorityBlockParser)),
		parser.WithInlineParsers(util.Prioritized(NewInlineParser(), priorityInlineParser)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(NewHTMLRenderer(), priorityHTMLRenderer)),
	)
}

type htmlRenderer struct{}

// NewHTMLRenderer renders unresolved directives as `<div|span data-directive>`
// around their content. Attributes are never emitted on this path.
func NewHTMLRenderer() renderer.NodeRenderer {
	return &htmlRenderer{}
}

func (r *htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindContainerDirective, r.renderContainer)
	reg.Register(KindLeafDirective, r.renderLeaf)
	reg.Register(KindTextDirective, r.renderText)
}

func (r *htmlRenderer) renderContainer(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ContainerDirective)
	if entering {
		writeOpen(w, "div", n.Name)
		_ = w.WriteByte('\n')
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderLeaf(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*LeafDirective)
	if entering {
		writeOpen(w, "div", n.Name)
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderText(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*TextDirective)
	if entering {
		writeOpen(w, "span", n.Name)
	} else {
		_, _ = w.WriteString("</span>")
	}
	return ast.WalkContinue, nil
}

func writeOpen(w util.BufWriter, tag, name string) {
	_, _ = w.WriteString("<" + tag + ` data-directive="`)
	_, _ = w.Write(util.EscapeHTML([]byte(DisplayName(name))))
	_, _ = w.WriteString(`">`)
}
