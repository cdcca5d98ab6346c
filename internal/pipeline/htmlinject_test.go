package pipeline

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
)

func TestSanitizeCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no escape needed", "body { color: red; }", "body { color: red; }"},
		{"escapes style close", "</style>", `<\/style>`},
		{"multiple occurrences", "</a></b>", `<\/a><\/b>`},
		{"mixed case", "</sTyLe>", `<\/sTyLe>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeCSS(tt.input); got != tt.expected {
				t.Errorf("SanitizeCSS(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInjectCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		html     string
		css      string
		expected string
	}{
		{"before head close", "<html><head></head><body></body></html>", "p{}", "<html><head><style>p{}</style></head><body></body></html>"},
		{"after body open", `<body class="x"><p>a</p></body>`, "p{}", `<body class="x"><style>p{}</style><p>a</p></body>`},
		{"prepend fragment", "<p>a</p>", "p{}", "<style>p{}</style><p>a</p>"},
		{"empty css", "<p>a</p>", "", "<p>a</p>"},
		{"sanitized", "<p>a</p>", "</style><script>", `<style><\/style><script></style><p>a</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := InjectCSS(context.Background(), tt.html, tt.css); got != tt.expected {
				t.Errorf("InjectCSS() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInjectCSS_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := InjectCSS(ctx, "<p>a</p>", "p{}"); got != "<p>a</p>" {
		t.Errorf("InjectCSS() = %q, want unchanged", got)
	}
}

// ---------------------------------------------------------------------------
// TestDocumentWrapper
// ---------------------------------------------------------------------------

const testDocumentTemplate = `<!DOCTYPE html><html lang="{{.Lang}}"><head><title>{{.Title}}</title>` +
	`{{range .Stylesheets}}<link rel="stylesheet" href="{{.}}">{{end}}</head>` +
	`<body>{{if .TOC}}<nav data-toc></nav>{{end}}{{.Body}}` +
	`{{range .Scripts}}<script src="{{.}}"></script>{{end}}</body></html>`

func TestDocumentWrapper_Wrap(t *testing.T) {
	t.Parallel()

	w, err := NewDocumentWrapper(testDocumentTemplate)
	if err != nil {
		t.Fatalf("NewDocumentWrapper() error: %v", err)
	}

	got, err := w.Wrap(context.Background(), &DocumentData{
		Title:       "A <b> title",
		Stylesheets: []string{"https://cdn.example.com/bs.css"},
		Scripts:     []string{"https://cdn.example.com/bs.js"},
		Body:        template.HTML("<p>body</p>"),
	})
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}

	for _, want := range []string{
		`<html lang="en">`,
		"<title>A &lt;b&gt; title</title>",
		`<link rel="stylesheet" href="https://cdn.example.com/bs.css">`,
		`<script src="https://cdn.example.com/bs.js"></script>`,
		"<p>body</p>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Wrap() missing %q:\n%s", want, got)
		}
	}
}

func TestDocumentWrapper_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewDocumentWrapper("{{.Broken"); err == nil {
		t.Error("NewDocumentWrapper() should reject invalid template")
	}

	w, err := NewDocumentWrapper("{{.Missing}}")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Wrap(context.Background(), &DocumentData{}); !errors.Is(err, ErrDocumentTemplate) {
		t.Errorf("Wrap() error = %v, want ErrDocumentTemplate", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Wrap(ctx, &DocumentData{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Wrap() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestInjectTOC
// ---------------------------------------------------------------------------

func TestExtractHeadings(t *testing.T) {
	t.Parallel()

	src := `<h1 id="t">Title</h1><h2 id="a">A &amp; <em>B</em></h2><h3>No id</h3><h3 id="c">C</h3><h4 id="d">D</h4>`
	got := extractHeadings(src, 2, 3)
	if len(got) != 2 {
		t.Fatalf("extractHeadings() = %+v, want 2 headings", got)
	}
	if got[0].id != "a" || got[0].text != "A & B" || got[0].level != 2 {
		t.Errorf("first heading = %+v", got[0])
	}
	if got[1].id != "c" || got[1].level != 3 {
		t.Errorf("second heading = %+v", got[1])
	}
}

func TestGenerateTOC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headings []heading
		title    string
		want     string
	}{
		{
			name:     "empty",
			headings: nil,
			want:     "",
		},
		{
			name:     "nested and back out",
			headings: []heading{{2, "a", "A"}, {3, "b", "B"}, {2, "c", "C"}},
			want: `<nav class="mdpp-toc"><ol><li><a href="#a">A</a><ol><li><a href="#b">B</a></li></ol></li>` +
				`<li><a href="#c">C</a></li></ol></nav>`,
		},
		{
			name:     "level jump flattened",
			headings: []heading{{2, "a", "A"}, {4, "b", "B"}},
			want:     `<nav class="mdpp-toc"><ol><li><a href="#a">A</a><ol><li><a href="#b">B</a></li></ol></li></ol></nav>`,
		},
		{
			name:     "title escaped",
			headings: []heading{{2, "a", "<A>"}},
			title:    "Contents & more",
			want: `<nav class="mdpp-toc"><h2 class="mdpp-toc-title">Contents &amp; more</h2>` +
				`<ol><li><a href="#a">&lt;A&gt;</a></li></ol></nav>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := generateTOC(tt.headings, tt.title); got != tt.want {
				t.Errorf("generateTOC()\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestInjectTOC(t *testing.T) {
	t.Parallel()

	body := `<h2 id="a">A</h2><p>x</p>`

	t.Run("marker replaced", func(t *testing.T) {
		t.Parallel()
		got, err := InjectTOC(context.Background(), "<body><nav data-toc></nav>"+body+"</body>", &TOCOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(got, `<body><nav class="mdpp-toc">`) || strings.Contains(got, "data-toc") {
			t.Errorf("InjectTOC() = %s", got)
		}
	})

	t.Run("after body without marker", func(t *testing.T) {
		t.Parallel()
		got, err := InjectTOC(context.Background(), "<body>"+body+"</body>", &TOCOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(got, `<body><nav class="mdpp-toc">`) {
			t.Errorf("InjectTOC() = %s", got)
		}
	})

	t.Run("no headings removes marker", func(t *testing.T) {
		t.Parallel()
		got, err := InjectTOC(context.Background(), "<body><nav data-toc></nav><p>x</p></body>", &TOCOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if got != "<body><p>x</p></body>" {
			t.Errorf("InjectTOC() = %s", got)
		}
	})

	t.Run("nil options", func(t *testing.T) {
		t.Parallel()
		got, err := InjectTOC(context.Background(), body, nil)
		if err != nil || got != body {
			t.Errorf("InjectTOC(nil) = %q, %v", got, err)
		}
	})
}
