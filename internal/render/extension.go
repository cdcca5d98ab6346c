// Package render resolves MD++ directives inside the goldmark AST.
//
// The resolver is an AST transformer. It reads a per-conversion State from
// the parser.Context, replaces directive nodes with Element, InlineElement
// and Raw nodes, and collects side-channel records (AI context blocks,
// placeholders, scripts, styles) and RenderErrors on the State.
package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

const priorityRenderer = 500

type extension struct{}

// Extension registers the resolver and the element renderer.
var Extension goldmark.Extender = &extension{}

func (e *extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(util.Prioritized(NewResolver(), ResolverPriority)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(NewHTMLRenderer(), priorityRenderer)),
	)
}

type htmlRenderer struct{}

// NewHTMLRenderer renders resolved elements.
func NewHTMLRenderer() renderer.NodeRenderer {
	return &htmlRenderer{}
}

func (r *htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindElement, r.renderElement)
	reg.Register(KindInlineElement, r.renderInlineElement)
	reg.Register(KindRaw, r.renderRaw)
	reg.Register(KindRawInline, r.renderRaw)
}

func (r *htmlRenderer) renderElement(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Element)
	if _, void := voidTags[n.Tag]; void {
		if entering {
			writeOpenTag(w, n.Tag, &n.Props, true)
			_ = w.WriteByte('\n')
		}
		return ast.WalkSkipChildren, nil
	}
	if entering {
		writeOpenTag(w, n.Tag, &n.Props, false)
		if first := n.FirstChild(); first != nil && first.Type() == ast.TypeBlock {
			_ = w.WriteByte('\n')
		}
		_, _ = w.Write(util.EscapeHTML([]byte(n.Caption)))
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</" + n.Tag + ">\n")
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderInlineElement(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*InlineElement)
	if _, void := voidTags[n.Tag]; void {
		if entering {
			writeOpenTag(w, n.Tag, &n.Props, true)
		}
		return ast.WalkSkipChildren, nil
	}
	if entering {
		writeOpenTag(w, n.Tag, &n.Props, false)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Caption)))
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</" + n.Tag + ">")
	return ast.WalkContinue, nil
}

func (r *htmlRenderer) renderRaw(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	switch n := node.(type) {
	case *Raw:
		_, _ = w.WriteString(n.HTML)
	case *RawInline:
		_, _ = w.WriteString(n.HTML)
	}
	return ast.WalkSkipChildren, nil
}

// writeOpenTag writes id, class, then the remaining attributes in order.
// Keys that are not valid attribute names are dropped.
func writeOpenTag(w util.BufWriter, tag string, p *Properties, selfClose bool) {
	_, _ = w.WriteString("<" + tag)
	if p.ID != "" {
		writeAttr(w, "id", p.ID)
	}
	if len(p.Classes) > 0 {
		writeAttr(w, "class", strings.Join(p.Classes, " "))
	}
	for _, a := range p.Attrs {
		if !attrPattern.MatchString(a.Key) {
			continue
		}
		if a.Bool {
			_, _ = w.WriteString(" " + a.Key)
			continue
		}
		writeAttr(w, a.Key, a.Value)
	}
	if selfClose {
		_, _ = w.WriteString(" />")
		return
	}
	_ = w.WriteByte('>')
}

func writeAttr(w util.BufWriter, key, value string) {
	_, _ = w.WriteString(" " + key + `="`)
	_, _ = w.Write(util.EscapeHTML([]byte(value)))
	_ = w.WriteByte('"')
}
