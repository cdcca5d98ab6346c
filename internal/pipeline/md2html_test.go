package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	_ ast.Node = (*Diagram)(nil)
	_ ast.Node = (*MathBlock)(nil)
	_ ast.Node = (*MathInline)(nil)
)

func render(t *testing.T, opts EngineOptions, src string) string {
	t.Helper()
	out, err := Render(context.Background(), NewMarkdown(opts), []byte(src), parser.NewContext())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	return out
}

// ---------------------------------------------------------------------------
// TestNewMarkdown - extension selection
// ---------------------------------------------------------------------------

func TestNewMarkdown(t *testing.T) {
	t.Parallel()

	all := EngineOptions{GFM: true, Math: true, Diagrams: true, KrokiURL: DefaultKrokiURL}

	tests := []struct {
		name         string
		opts         EngineOptions
		input        string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "gfm strikethrough",
			opts:         all,
			input:        "~~gone~~",
			wantContains: []string{"<del>gone</del>"},
		},
		{
			name:         "no gfm",
			opts:         EngineOptions{},
			input:        "~~gone~~",
			wantExcludes: []string{"<del>"},
		},
		{
			name:         "heading ids",
			opts:         all,
			input:        "## Getting Started",
			wantContains: []string{`<h2 id="getting-started">`},
		},
		{
			name:         "raw html omitted",
			opts:         all,
			input:        "<script>alert(1)</script>",
			wantContains: []string{"raw HTML omitted"},
			wantExcludes: []string{"<script>"},
		},
		{
			name:         "highlighted code uses classes",
			opts:         all,
			input:        "```go\nfunc main() {}\n```",
			wantContains: []string{`class="chroma"`},
		},
		{
			name:         "inline math",
			opts:         all,
			input:        "Area $\\pi r^2$ here",
			wantContains: []string{`<span class="math math-inline">\(\pi r^2\)</span>`},
		},
		{
			name:         "prices are not math",
			opts:         all,
			input:        "Costs $5 and $10 today",
			wantExcludes: []string{"math-inline"},
		},
		{
			name:         "math disabled",
			opts:         EngineOptions{GFM: true},
			input:        "Area $x$ here",
			wantExcludes: []string{"math-inline"},
		},
		{
			name:         "display math escaped",
			opts:         all,
			input:        "$$\na<b\n$$",
			wantContains: []string{"<div class=\"math math-display\">\\[a&lt;b\n\\]</div>"},
		},
		{
			name:         "single line display math",
			opts:         all,
			input:        "$$x+y$$",
			wantContains: []string{`<div class="math math-display">\[x+y\]</div>`},
		},
		{
			name:         "mermaid",
			opts:         all,
			input:        "```mermaid\ngraph TD; A-->B\n```",
			wantContains: []string{"<pre class=\"mermaid\">graph TD; A--&gt;B\n</pre>"},
		},
		{
			name:         "kroki image",
			opts:         all,
			input:        "```plantuml\n@startuml\nA -> B\n@enduml\n```",
			wantContains: []string{`<img class="diagram diagram-plantuml" src="https://kroki.io/plantuml/svg/`},
		},
		{
			name:         "kroki without url stays code",
			opts:         EngineOptions{Diagrams: true},
			input:        "```plantuml\nA -> B\n```",
			wantExcludes: []string{"<img"},
		},
		{
			name:         "diagrams disabled",
			opts:         EngineOptions{},
			input:        "```mermaid\ngraph TD\n```",
			wantExcludes: []string{`class="mermaid"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := render(t, tt.opts, tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("output should not contain %q:\n%s", exclude, got)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDiagram_ReplacesFence - AST node for diagram fences
// ---------------------------------------------------------------------------

func TestDiagram_ReplacesFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		wantType string
	}{
		{name: "mermaid", src: "```mermaid\ngraph TD\n```\n", wantType: "mermaid"},
		{name: "kroki alias", src: "```puml\ngraph TD\n```\n", wantType: "plantuml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			md := NewMarkdown(EngineOptions{Diagrams: true, KrokiURL: DefaultKrokiURL})
			doc := md.Parser().Parse(text.NewReader([]byte(tt.src)))
			d, ok := doc.FirstChild().(*Diagram)
			if !ok {
				t.Fatalf("first child = %T, want *Diagram", doc.FirstChild())
			}
			if d.DiagramType != tt.wantType {
				t.Errorf("DiagramType = %q, want %q", d.DiagramType, tt.wantType)
			}
			if string(d.Source) != "graph TD\n" {
				t.Errorf("Source = %q", d.Source)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestKrokiURL - payload round trip
// ---------------------------------------------------------------------------

func TestKrokiURL(t *testing.T) {
	t.Parallel()

	source := []byte("digraph { a -> b }\n")
	url, err := KrokiURL("https://kroki.example/", "graphviz", source)
	if err != nil {
		t.Fatalf("KrokiURL() error: %v", err)
	}
	prefix := "https://kroki.example/graphviz/svg/"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("KrokiURL() = %q, want prefix %q", url, prefix)
	}
	decoded, err := DecodeKroki(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("DecodeKroki() error: %v", err)
	}
	if string(decoded) != string(source) {
		t.Errorf("round trip = %q, want %q", decoded, source)
	}
}

func TestDecodeKroki_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := DecodeKroki("!!not-base64"); !errors.Is(err, ErrDiagramEncoding) {
		t.Errorf("DecodeKroki() error = %v, want ErrDiagramEncoding", err)
	}
}

// ---------------------------------------------------------------------------
// TestRender / TestHighlightCSS
// ---------------------------------------------------------------------------

func TestRender_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Render(ctx, NewMarkdown(EngineOptions{}), []byte("# x"), parser.NewContext())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestHighlightCSS(t *testing.T) {
	t.Parallel()

	css, err := HighlightCSS("")
	if err != nil {
		t.Fatalf("HighlightCSS() error: %v", err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Errorf("HighlightCSS() missing .chroma rules:\n%s", css)
	}

	if _, err := HighlightCSS("Monokai"); err != nil {
		t.Errorf("HighlightCSS(Monokai) error: %v", err)
	}
	if _, err := HighlightCSS("no-such-style"); !errors.Is(err, ErrUnknownStyle) {
		t.Errorf("HighlightCSS(unknown) error = %v, want ErrUnknownStyle", err)
	}
}
