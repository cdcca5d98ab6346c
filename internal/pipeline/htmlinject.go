package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel errors for document assembly.
var (
	ErrDocumentTemplate = errors.New("document template rendering failed")
)

// tocMarker is the element a document template places where the table of
// contents belongs.
const tocMarker = `<nav data-toc></nav>`

// SanitizeCSS escapes sequences that could break out of a <style> block.
func SanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
func InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + SanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}
	if pos := afterBodyTag(htmlContent, lowerHTML); pos != -1 {
		return htmlContent[:pos] + styleBlock + htmlContent[pos:]
	}
	return styleBlock + htmlContent
}

// afterBodyTag returns the offset just past the opening <body ...> tag.
func afterBodyTag(htmlContent, lowerHTML string) int {
	idx := strings.Index(lowerHTML, "<body")
	if idx == -1 {
		return -1
	}
	closeIdx := strings.Index(htmlContent[idx:], ">")
	if closeIdx == -1 {
		return -1
	}
	return idx + closeIdx + 1
}

// DocumentData fills the standalone page template.
type DocumentData struct {
	Title       string
	Lang        string
	Stylesheets []string // trusted stylesheet URLs
	Scripts     []string // trusted script URLs
	TOC         bool     // reserve a table of contents slot
	Body        template.HTML
}

// DocumentWrapper renders converted fragments into standalone pages.
type DocumentWrapper struct {
	tmpl *template.Template
}

// NewDocumentWrapper parses the page template.
func NewDocumentWrapper(tmplContent string) (*DocumentWrapper, error) {
	tmpl, err := template.New("document").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	return &DocumentWrapper{tmpl: tmpl}, nil
}

// Wrap renders data into a complete HTML document.
func (d *DocumentWrapper) Wrap(ctx context.Context, data *DocumentData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if data.Lang == "" {
		data.Lang = "en"
	}
	if data.Title == "" {
		data.Title = "Document"
	}
	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentTemplate, err)
	}
	return buf.String(), nil
}

// TOCOptions bounds the heading levels listed in a table of contents.
type TOCOptions struct {
	Title    string
	MinDepth int // default 2
	MaxDepth int // default 3
}

type heading struct {
	level int
	id    string
	text  string
}

// extractHeadings collects h1-h6 elements with an id, in document order.
func extractHeadings(htmlContent string, minDepth, maxDepth int) []heading {
	z := nethtml.NewTokenizer(strings.NewReader(htmlContent))
	var (
		out     []heading
		current *heading
		text    strings.Builder
	)
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			return out
		case nethtml.StartTagToken:
			tok := z.Token()
			level := headingLevel(tok.DataAtom)
			if level == 0 || level < minDepth || level > maxDepth {
				continue
			}
			for _, a := range tok.Attr {
				if a.Key == "id" && a.Val != "" {
					current = &heading{level: level, id: a.Val}
					text.Reset()
				}
			}
		case nethtml.TextToken:
			if current != nil {
				text.Write(z.Text())
			}
		case nethtml.EndTagToken:
			tok := z.Token()
			if current != nil && headingLevel(tok.DataAtom) == current.level {
				current.text = strings.TrimSpace(text.String())
				out = append(out, *current)
				current = nil
			}
		}
	}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// generateTOC renders headings as nested ordered lists. Level jumps are
// flattened so a list is never opened more than one level deeper.
func generateTOC(headings []heading, title string) string {
	if len(headings) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="mdpp-toc">`)
	if title != "" {
		buf.WriteString(`<h2 class="mdpp-toc-title">`)
		buf.WriteString(html.EscapeString(title))
		buf.WriteString(`</h2>`)
	}

	depth := 0
	base := headings[0].level
	for _, h := range headings {
		target := max(h.level-base+1, 1)
		if target > depth+1 {
			target = depth + 1
		}
		switch {
		case target > depth:
			buf.WriteString("<ol>")
			depth++
		case target == depth:
			buf.WriteString("</li>")
		default:
			buf.WriteString("</li>")
			for depth > target {
				buf.WriteString("</ol></li>")
				depth--
			}
		}
		buf.WriteString(`<li><a href="#`)
		buf.WriteString(html.EscapeString(h.id))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(h.text))
		buf.WriteString(`</a>`)
	}
	for ; depth > 0; depth-- {
		buf.WriteString("</li></ol>")
	}
	buf.WriteString(`</nav>`)
	return buf.String()
}

// InjectTOC builds a table of contents from the document headings and
// places it at the template's TOC slot, else right after <body>.
// A nil opts or a document without headings leaves content unchanged.
func InjectTOC(ctx context.Context, htmlContent string, opts *TOCOptions) (string, error) {
	if opts == nil {
		return htmlContent, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	minDepth, maxDepth := opts.MinDepth, opts.MaxDepth
	if minDepth == 0 {
		minDepth = 2
	}
	if maxDepth == 0 {
		maxDepth = 3
	}

	toc := generateTOC(extractHeadings(htmlContent, minDepth, maxDepth), opts.Title)
	if toc == "" {
		return strings.Replace(htmlContent, tocMarker, "", 1), nil
	}
	if strings.Contains(htmlContent, tocMarker) {
		return strings.Replace(htmlContent, tocMarker, toc, 1), nil
	}
	if pos := afterBodyTag(htmlContent, strings.ToLower(htmlContent)); pos != -1 {
		return htmlContent[:pos] + toc + htmlContent[pos:], nil
	}
	return toc + htmlContent, nil
}
