package placeholder

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestInterpolate
// ---------------------------------------------------------------------------

func TestInterpolate(t *testing.T) {
	t.Parallel()

	vars := map[string]any{
		"product": "Widget",
		"count":   3,
		"price":   9.5,
		"onSale":  true,
		"user":    map[string]any{"name": "Ada", "tags": []any{"a", "b"}},
		"list":    []any{1, "two"},
		"empty":   nil,
	}

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"string", "Describe {{product}}", "Describe Widget"},
		{"spaces inside braces", "Describe {{ product }}", "Describe Widget"},
		{"unknown token", "Describe {{x}}", "Describe {{x}}"},
		{"integer", "{{count}} items", "3 items"},
		{"float", "costs {{price}}", "costs 9.5"},
		{"bool", "sale={{onSale}}", "sale=true"},
		{"dotted path", "hi {{user.name}}", "hi Ada"},
		{"missing dotted path", "hi {{user.age}}", "hi {{user.age}}"},
		{"object as json", "{{user}}", `{"name":"Ada","tags":["a","b"]}`},
		{"slice as json", "{{list}}", `[1,"two"]`},
		{"nil is empty", "[{{empty}}]", "[]"},
		{"repeated", "{{product}}/{{product}}", "Widget/Widget"},
		{"no tokens", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Interpolate(tt.prompt, vars); got != tt.want {
				t.Errorf("Interpolate(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestInterpolate_NilVars(t *testing.T) {
	t.Parallel()

	if got := Interpolate("Describe {{product}}", nil); got != "Describe {{product}}" {
		t.Errorf("Interpolate() = %q", got)
	}
}

func TestReferenced(t *testing.T) {
	t.Parallel()

	vars := map[string]any{"a": 1, "user": map[string]any{"n": "x"}, "unused": 2}
	got := Referenced("{{a}} {{user.n}} {{missing}} {{a}}", vars)
	if len(got) != 2 || got["a"] != 1 || got["user"] == nil {
		t.Errorf("Referenced() = %v", got)
	}
	if Referenced("no tokens", vars) != nil {
		t.Error("Referenced() without tokens should be nil")
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()

	got := Tokens("{{b}} {{ a }} {{b}} {{ not a token }}")
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("Tokens() = %v", got)
	}
}

// ---------------------------------------------------------------------------
// TestDisplay
// ---------------------------------------------------------------------------

func TestDisplay(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 60)
	tests := []struct {
		name string
		p    Placeholder
		want string
	}{
		{"fallback wins", Placeholder{Type: TypeBlock, Prompt: long, Fallback: "soon"}, "soon"},
		{"short prompt", Placeholder{Type: TypeBlock, Prompt: "short"}, "short"},
		{"block truncates at 50 runes", Placeholder{Type: TypeBlock, Prompt: long}, strings.Repeat("é", 50) + "…"},
		{"inline truncates at 30 runes", Placeholder{Type: TypeInline, Prompt: long}, strings.Repeat("é", 30) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.p.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{
		"":        FormatParagraph,
		"list":    FormatList,
		"table":   FormatTable,
		"inline":  FormatInline,
		"haiku":   FormatParagraph,
		"PARAGRA": FormatParagraph,
	} {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDataAttrs(t *testing.T) {
	t.Parallel()

	p := Placeholder{ID: "ai-1", Type: TypeBlock, Prompt: "p", Format: FormatList, Status: StatusPending, Line: 4}
	attrs := p.DataAttrs()
	keys := make([]string, len(attrs))
	for i, a := range attrs {
		keys[i] = a[0]
	}
	want := "data-ai-id,data-ai-type,data-ai-prompt,data-ai-format,data-ai-status,data-ai-line"
	if strings.Join(keys, ",") != want {
		t.Errorf("DataAttrs() keys = %v", keys)
	}
}

// ---------------------------------------------------------------------------
// TestExtract
// ---------------------------------------------------------------------------

const rendered = `<h1>Doc</h1>
<div class="ai-placeholder" data-ai-id="ai-1" data-ai-type="block" data-ai-prompt="Write &amp; list" data-ai-format="list" data-ai-status="pending" data-ai-line="3">Write &amp; list</div>
<p>See <span class="ai-placeholder" data-ai-id="ai-2" data-ai-type="inline" data-ai-prompt="name" data-ai-format="inline" data-ai-status="pending" data-ai-fallback="TBD">TBD</span>.</p>
`

func TestExtract(t *testing.T) {
	t.Parallel()

	got := Extract(rendered)
	if len(got) != 2 {
		t.Fatalf("Extract() returned %d placeholders, want 2", len(got))
	}
	first := got[0]
	if first.ID != "ai-1" || first.Type != TypeBlock || first.Format != FormatList || first.Line != 3 {
		t.Errorf("first = %+v", first)
	}
	if first.Prompt != "Write & list" {
		t.Errorf("prompt not unescaped: %q", first.Prompt)
	}
	if got[1].Fallback != "TBD" || got[1].Status != StatusPending {
		t.Errorf("second = %+v", got[1])
	}
}

func TestExtract_None(t *testing.T) {
	t.Parallel()

	if got := Extract("<p>nothing</p>"); len(got) != 0 {
		t.Errorf("Extract() = %v", got)
	}
}

// ---------------------------------------------------------------------------
// TestReplace
// ---------------------------------------------------------------------------

func TestReplace(t *testing.T) {
	t.Parallel()

	out, err := Replace(rendered, "ai-1", "<ul><li>one</li></ul>", StatusCompleted)
	if err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if !strings.Contains(out, `data-ai-status="completed" data-ai-line="3"><ul><li>one</li></ul></div>`) {
		t.Errorf("replacement missing:\n%s", out)
	}
	if strings.Contains(out, ">Write &amp; list</div>") {
		t.Error("old content still present")
	}

	before, _, _ := strings.Cut(rendered, `<div class="ai-placeholder"`)
	_, after, _ := strings.Cut(rendered, "</div>")
	if !strings.HasPrefix(out, before) || !strings.HasSuffix(out, after) {
		t.Error("bytes outside the placeholder changed")
	}

	got := Extract(out)
	if got[0].Status != StatusCompleted || got[1].Status != StatusPending {
		t.Errorf("statuses after replace = %q, %q", got[0].Status, got[1].Status)
	}
}

func TestReplace_NestedSameTag(t *testing.T) {
	t.Parallel()

	src := `<div data-ai-id="x" data-ai-status="pending"><div>inner</div>tail</div><div>after</div>`
	out, err := Replace(src, "x", "new", StatusError)
	if err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	want := `<div data-ai-id="x" data-ai-status="error">new</div><div>after</div>`
	if out != want {
		t.Errorf("Replace() = %q, want %q", out, want)
	}
}

func TestReplace_InsertsMissingStatus(t *testing.T) {
	t.Parallel()

	out, err := Replace(`<span data-ai-id="x">old</span>`, "x", "new", StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if out != `<span data-ai-id="x" data-ai-status="completed">new</span>` {
		t.Errorf("Replace() = %q", out)
	}
}

func TestReplace_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		id      string
		status  Status
		wantErr error
	}{
		{"unknown id", rendered, "ai-9", StatusCompleted, ErrNotFound},
		{"pending is not a final status", rendered, "ai-1", StatusPending, ErrInvalidStatus},
		{"unclosed element", `<div data-ai-id="x">open`, "x", StatusCompleted, ErrMalformedHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Replace(tt.src, tt.id, "c", tt.status); !errors.Is(err, tt.wantErr) {
				t.Errorf("Replace() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
