package render

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-mdpp/internal/directive"
	"github.com/alnah/go-mdpp/internal/placeholder"
)

// plainText flattens the rendered text of n's children. Blocks are
// separated by newlines.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	writePlain(&b, n, source)
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, n ast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(textValue(t, source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b.WriteString(strings.TrimRight(linesValue(c, source), "\n"))
		case *Raw, *RawInline:
		case *Element:
			b.WriteString(t.Caption)
			writePlain(b, t, source)
		case *InlineElement:
			b.WriteString(t.Caption)
			writePlain(b, t, source)
		default:
			writePlain(b, c, source)
		}
	}
}

// textValue is what a Text node displays: escapes and entities resolved.
func textValue(t *ast.Text, source []byte) []byte {
	v := t.Segment.Value(source)
	if t.IsRaw() {
		return v
	}
	return util.UnescapePunctuations(util.ResolveNumericReferences(util.ResolveEntityNames(v)))
}

func linesValue(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// directiveText is the content of a directive as authored: the verbatim
// body for containers, the label for leaf and text directives. A body that
// is a single fenced code block yields the code inside the fences. Blank
// lines around the content are dropped; indentation of the first line is
// kept.
func directiveText(d directive.Node, source []byte) string {
	switch n := d.(type) {
	case *directive.ContainerDirective:
		if code := soleFencedCode(n); code != nil {
			return trimBlankLines(linesValue(code, source))
		}
		return trimBlankLines(n.Body(source))
	case *directive.LeafDirective:
		return strings.TrimSpace(linesValue(n, source))
	default:
		return plainText(d, source)
	}
}

func soleFencedCode(n *directive.ContainerDirective) ast.Node {
	var code ast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c == n.LabelNode() {
			continue
		}
		if code != nil || c.Kind() != ast.KindFencedCodeBlock {
			return nil
		}
		code = c
	}
	return code
}

func trimBlankLines(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	for {
		line, rest, ok := strings.Cut(s, "\n")
		if !ok || strings.TrimSpace(line) != "" {
			return s
		}
		s = rest
	}
}

// substituteVariables replaces {{name}} tokens in text outside code.
// Runs of adjacent Text nodes are merged first so tokens split by the
// inline parser still match.
func (r *resolution) substituteVariables(n ast.Node) {
	switch n.(type) {
	case *ast.CodeSpan, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return
	}
	if d, ok := n.(directive.Node); ok && r.consumesContent(classify(d)) {
		return
	}
	for c := n.FirstChild(); c != nil; {
		if _, ok := c.(*ast.Text); ok {
			c = r.substituteRun(n, c)
			continue
		}
		r.substituteVariables(c)
		c = c.NextSibling()
	}
}

// substituteRun handles the Text run starting at first and returns the
// node following it.
func (r *resolution) substituteRun(parent, first ast.Node) ast.Node {
	var (
		buf  []byte
		last *ast.Text
	)
	for c := first; c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			break
		}
		buf = append(buf, textValue(t, r.source)...)
		last = t
		if t.SoftLineBreak() || t.HardLineBreak() {
			break
		}
	}
	next := last.NextSibling()

	in := string(buf)
	if !strings.Contains(in, "{{") {
		return next
	}
	out := placeholder.Interpolate(in, r.st.opts.Variables)
	if out == in {
		return next
	}

	html := string(util.EscapeHTML([]byte(out)))
	switch {
	case last.HardLineBreak():
		html += "<br />\n"
	case last.SoftLineBreak():
		html += "\n"
	}
	parent.InsertBefore(parent, first, &RawInline{HTML: html})
	for c := first; c != nil; {
		following := c.NextSibling()
		parent.RemoveChild(parent, c)
		if c == ast.Node(last) {
			break
		}
		c = following
	}
	return next
}
