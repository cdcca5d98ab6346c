package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Sentinel errors for HTML conversion.
var (
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrUnknownStyle   = errors.New("unknown highlight style")
)

// DefaultHighlightStyle is the chroma style used for highlight CSS.
const DefaultHighlightStyle = "github"

// EngineOptions selects the goldmark extensions for one capability set.
type EngineOptions struct {
	GFM      bool   // tables, strikethrough, autolinks, task lists
	Math     bool   // $inline$ and $$display$$ math
	Diagrams bool   // mermaid and Kroki fenced blocks
	KrokiURL string // empty leaves Kroki languages as code blocks
}

// NewMarkdown builds a goldmark instance for opts. Extra extensions are
// added after the built-in ones. Raw HTML in the source is never emitted.
// The instance holds no per-document state and may be shared.
func NewMarkdown(opts EngineOptions, exts ...goldmark.Extender) goldmark.Markdown {
	extenders := []goldmark.Extender{
		extension.Footnote, // [^1] footnotes
		highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true), // CSS classes, stylesheet from HighlightCSS
			),
		),
	}
	if opts.GFM {
		extenders = append(extenders, extension.GFM)
	}
	if opts.Math {
		extenders = append(extenders, Math)
	}
	if opts.Diagrams {
		extenders = append(extenders, NewDiagrams(opts.KrokiURL))
	}
	extenders = append(extenders, exts...)

	return goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // heading anchors
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// WithUnsafe is not used: directives are the only way to emit custom markup.
		),
	)
}

// Render parses and renders source with md, using pc for per-document
// state. Goldmark has no context support, so conversion runs in a
// goroutine and the call returns early on cancellation. Panics raised by
// extensions are returned as ErrHTMLConversion.
func Render(ctx context.Context, md goldmark.Markdown, source []byte, pc parser.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", ErrHTMLConversion, r)}
			}
		}()
		var buf bytes.Buffer
		if err := md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// HighlightCSS returns the stylesheet for the chroma classes emitted by
// code highlighting. An empty name selects DefaultHighlightStyle.
func HighlightCSS(name string) (string, error) {
	if name == "" {
		name = DefaultHighlightStyle
	}
	style, ok := styles.Registry[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}
