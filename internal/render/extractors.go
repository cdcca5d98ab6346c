package render

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alnah/go-mdpp/internal/directive"
	"github.com/alnah/go-mdpp/internal/placeholder"
)

// ---------------------------------------------------------------------------
// Callouts
// ---------------------------------------------------------------------------

const defaultCalloutType = "note"

func (r *resolution) resolveCallout(d directive.Node) {
	h := d.Directive()
	attrs := r.filter(h, h.Attrs)
	typ, _ := attrs.Get("type")
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		typ = defaultCalloutType
	}

	b := Built{Tag: "div"}
	b.Props.AddClass("callout", "callout-"+typ)
	b.Props.Set("data-callout", typ)

	title := &Element{Tag: "div"}
	title.Props.AddClass("callout-title")
	if c, ok := d.(*directive.ContainerDirective); ok {
		if label := c.LabelNode(); label != nil {
			moveChildren(label, title)
			remove(label)
		}
	}
	if title.FirstChild() == nil {
		title.Caption = cases.Title(language.English).String(typ)
	}

	inner := r.replace(d, b, true)
	prepend(inner, title)
}

func prepend(parent, child ast.Node) {
	if first := parent.FirstChild(); first != nil {
		parent.InsertBefore(parent, first, child)
		return
	}
	parent.AppendChild(parent, child)
}

// ---------------------------------------------------------------------------
// AI context
// ---------------------------------------------------------------------------

const htmlHiddenComment = "<!-- ai-context -->"

// resolveAIContext records content for AI agents. Visibility comes from a
// label that is exactly a visibility keyword, then the visibility
// attribute, then defaults to hidden.
func (r *resolution) resolveAIContext(d directive.Node) {
	h := d.Directive()
	attrs := r.filter(h, h.Attrs)

	vis := VisibilityHidden
	fromLabel := false
	if h.HasLabel {
		if v, ok := parseVisibility(strings.TrimSpace(h.Label)); ok {
			vis, fromLabel = v, true
		}
	}
	if !fromLabel {
		if raw, ok := attrs.Get("visibility"); ok {
			if v, ok := parseVisibility(strings.TrimSpace(raw)); ok {
				vis = v
			}
		}
	}
	if fromLabel {
		dropLabel(d)
	}
	attrs = attrs.Without("visibility")

	showHidden := r.st.opts.ShowAIContext
	r.st.AIContexts = append(r.st.AIContexts, AIContext{
		Visibility: vis,
		Visible:    vis == VisibilityVisible || (vis == VisibilityHidden && showHidden),
		Content:    plainText(d, r.source),
		Metadata:   metadata(attrs),
		Line:       h.Line,
	})

	if vis == VisibilityHTMLHidden {
		if directive.IsBlock(d) {
			swap(d, &Raw{HTML: htmlHiddenComment + "\n"})
		} else {
			swap(d, &RawInline{HTML: htmlHiddenComment})
		}
		return
	}

	fallback := "div"
	if !directive.IsBlock(d) {
		fallback = "span"
	}
	b := Build(nil, nil, attrs, fallback)
	b.Props.AddClass("ai-context")
	b.Props.Set("data-ai-context", string(vis))
	if vis == VisibilityHidden && !showHidden {
		b.Props.AddClass("ai-context-hidden")
		b.Props.Set("style", "display: none;")
	}
	r.replace(d, b, true)
}

// dropLabel removes the nodes a directive label produced.
func dropLabel(d directive.Node) {
	switch n := d.(type) {
	case *directive.ContainerDirective:
		if label := n.LabelNode(); label != nil {
			remove(label)
		}
	default:
		n.RemoveChildren(n)
	}
}

func metadata(attrs directive.Attrs) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

// ---------------------------------------------------------------------------
// AI placeholders
// ---------------------------------------------------------------------------

// resolvePlaceholder emits a placeholder element and its record. The
// prompt keeps its {{variable}} tokens; resolution happens downstream.
func (r *resolution) resolvePlaceholder(d directive.Node) {
	h := d.Directive()
	attrs := r.filter(h, h.Attrs)

	prompt, _ := attrs.Get("prompt")
	if strings.TrimSpace(prompt) == "" {
		prompt = directiveText(d, r.source)
	}
	if prompt == "" && h.HasLabel {
		prompt = strings.TrimSpace(h.Label)
	}
	p := placeholder.Placeholder{
		ID:     r.st.recordID(requestedID(attrs), "ai"),
		Prompt: prompt,
		Status: placeholder.StatusPending,
		Line:   h.Line,
	}
	p.Fallback, _ = attrs.Get("fallback")
	tag := "div"
	if directive.IsBlock(d) {
		p.Type = placeholder.TypeBlock
		f, _ := attrs.Get("format")
		p.Format = placeholder.ParseFormat(f)
	} else {
		tag = "span"
		p.Type = placeholder.TypeInline
		p.Format = placeholder.FormatInline
	}
	if r.st.opts.Capabilities.Variables {
		p.Variables = placeholder.Referenced(prompt, r.st.opts.Variables)
	}
	r.st.Placeholders = append(r.st.Placeholders, p)

	b := Built{Tag: tag}
	b.Props.AddClass("ai-placeholder", "ai-placeholder-"+string(p.Type))
	for _, kv := range p.DataAttrs() {
		b.Props.Set(kv[0], kv[1])
	}
	setText(r.replace(d, b, false), p.Display())
}

func setText(n ast.Node, s string) {
	switch el := n.(type) {
	case *Element:
		el.Caption = s
	case *InlineElement:
		el.Caption = s
	}
}
