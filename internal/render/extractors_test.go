package render

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/alnah/go-mdpp/internal/format"
	"github.com/alnah/go-mdpp/internal/placeholder"
	"github.com/alnah/go-mdpp/internal/security"
)

// ---------------------------------------------------------------------------
// TestAIContext
// ---------------------------------------------------------------------------

func TestAIContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		show         bool
		wantVis      Visibility
		wantVisible  bool
		wantContent  string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "label keyword visible",
			input:        ":::ai-context[visible]\nFor agents.\n:::",
			wantVis:      VisibilityVisible,
			wantVisible:  true,
			wantContent:  "For agents.",
			wantContains: []string{`<div class="ai-context" data-ai-context="visible">`, "<p>For agents.</p>"},
			wantExcludes: []string{"display: none", "<p>visible</p>"},
		},
		{
			name:         "default hidden",
			input:        ":::ai-context\nSecret notes.\n:::",
			wantVis:      VisibilityHidden,
			wantContent:  "Secret notes.",
			wantContains: []string{`class="ai-context ai-context-hidden"`, `style="display: none;"`},
		},
		{
			name:         "hidden shown on request",
			input:        ":::ai-context[hidden]\nShown.\n:::",
			show:         true,
			wantVis:      VisibilityHidden,
			wantVisible:  true,
			wantContent:  "Shown.",
			wantExcludes: []string{"display: none", "ai-context-hidden"},
		},
		{
			name:         "html-hidden attribute",
			input:        ":::ai-context{visibility=\"html-hidden\"}\nNever in HTML.\n:::",
			wantVis:      VisibilityHTMLHidden,
			wantContent:  "Never in HTML.",
			wantContains: []string{"<!-- ai-context -->"},
			wantExcludes: []string{"Never in HTML"},
		},
		{
			name:         "non keyword label is content",
			input:        ":::ai-context[Summary]{visibility=\"visible\"}\nBody.\n:::",
			wantVis:      VisibilityVisible,
			wantVisible:  true,
			wantContent:  "Summary\nBody.",
			wantContains: []string{"<p>Summary</p>"},
		},
		{
			name:         "framework prefix",
			input:        ":::bootstrap:ai-context[visible]\nX\n:::",
			wantVis:      VisibilityVisible,
			wantVisible:  true,
			wantContent:  "X",
			wantContains: []string{`class="ai-context"`},
		},
		{
			name:         "text form",
			input:        "Before :ai-context[inline note]{visibility=\"visible\"} after",
			wantVis:      VisibilityVisible,
			wantVisible:  true,
			wantContent:  "inline note",
			wantContains: []string{`<span class="ai-context" data-ai-context="visible">inline note</span>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := testOptions(t, format.MD)
			opts.ShowAIContext = tt.show
			got, st := convert(t, opts, tt.input)
			assertHTML(t, got, tt.wantContains, tt.wantExcludes)

			if len(st.AIContexts) != 1 {
				t.Fatalf("AIContexts = %+v, want 1 record", st.AIContexts)
			}
			c := st.AIContexts[0]
			if c.Visibility != tt.wantVis || c.Visible != tt.wantVisible || c.Content != tt.wantContent {
				t.Errorf("record = %+v, want visibility=%s visible=%v content=%q",
					c, tt.wantVis, tt.wantVisible, tt.wantContent)
			}
		})
	}
}

func TestAIContext_Metadata(t *testing.T) {
	t.Parallel()

	_, st := convert(t, testOptions(t, format.MDPlus),
		":::ai-context{visibility=\"visible\" audience=\"llm\" priority=\"high\"}\nx\n:::")
	if len(st.AIContexts) != 1 {
		t.Fatalf("AIContexts = %+v", st.AIContexts)
	}
	m := st.AIContexts[0].Metadata
	if m["audience"] != "llm" || m["priority"] != "high" {
		t.Errorf("Metadata = %v", m)
	}
	if _, ok := m["visibility"]; ok {
		t.Error("visibility should not be metadata")
	}
	if st.AIContexts[0].Line != 1 {
		t.Errorf("Line = %d, want 1", st.AIContexts[0].Line)
	}
}

// ---------------------------------------------------------------------------
// TestPlaceholders
// ---------------------------------------------------------------------------

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	src := "::ai-generate{prompt=\"Summarize {{topic}} for {{user.name}}\" format=\"list\" fallback=\"Coming soon\"}\n\n" +
		"Inline :ai{prompt=\"a short tagline about the product line\"} here.\n\n" +
		":::ai_generate{id=\"intro\"}\nWrite an introduction.\n:::\n\n" +
		":::ai-generate{id=\"intro\"}\nAgain.\n:::"

	opts := testOptions(t, format.MDSC)
	opts.Variables = map[string]any{"topic": "Go", "user": map[string]any{"name": "Ada"}, "unused": 1}
	got, st := convert(t, opts, src)

	if len(st.Placeholders) != 4 {
		t.Fatalf("Placeholders = %+v, want 4", st.Placeholders)
	}

	block := st.Placeholders[0]
	if block.ID != "ai-1" || block.Type != placeholder.TypeBlock || block.Format != placeholder.FormatList {
		t.Errorf("block placeholder = %+v", block)
	}
	if block.Prompt != "Summarize {{topic}} for {{user.name}}" {
		t.Errorf("prompt = %q, tokens must be kept", block.Prompt)
	}
	if _, ok := block.Variables["topic"]; !ok || block.Variables["unused"] != nil {
		t.Errorf("Variables = %v, want referenced roots only", block.Variables)
	}

	inline := st.Placeholders[1]
	if inline.Type != placeholder.TypeInline || inline.Format != placeholder.FormatInline {
		t.Errorf("inline placeholder = %+v", inline)
	}
	if st.Placeholders[2].ID != "intro" || st.Placeholders[3].ID != "intro-2" {
		t.Errorf("ids = %q, %q, want intro, intro-2", st.Placeholders[2].ID, st.Placeholders[3].ID)
	}
	if st.Placeholders[2].Prompt != "Write an introduction." {
		t.Errorf("content prompt = %q", st.Placeholders[2].Prompt)
	}

	assertHTML(t, got,
		[]string{
			`<div class="ai-placeholder ai-placeholder-block" data-ai-id="ai-1" data-ai-type="block"`,
			`data-ai-format="list" data-ai-status="pending" data-ai-fallback="Coming soon" data-ai-line="1">Coming soon</div>`,
			`<span class="ai-placeholder ai-placeholder-inline"`,
			"a short tagline about the prod…</span>",
		},
		[]string{"Write an introduction.</p>"},
	)

	extracted := placeholder.Extract(got)
	if len(extracted) != 4 || extracted[0].Prompt != block.Prompt {
		t.Errorf("Extract() round trip = %+v", extracted)
	}
}

func TestPlaceholders_NoVariablesOutsideMDSC(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, format.MDPlus)
	opts.Variables = map[string]any{"topic": "Go"}
	_, st := convert(t, opts, "::ai-generate{prompt=\"About {{topic}}\"}")
	if len(st.Placeholders) != 1 || st.Placeholders[0].Variables != nil {
		t.Errorf("Placeholders = %+v, want no variables", st.Placeholders)
	}
}

// ---------------------------------------------------------------------------
// TestScripts
// ---------------------------------------------------------------------------

func TestScripts(t *testing.T) {
	t.Parallel()

	src := ":::script{lang=\"python\" async cache=\"yes\"}\nprint(\"a b\")\n:::\n\n" +
		":::script:output\n```js\nconsole.log(1 < 2)\n```\n:::\n\n" +
		":::script{language=\"ruby\" cache=\"no\"}\nputs 1\n\nputs 2\n:::"
	got, st := convert(t, testOptions(t, format.MDSC), src)

	if len(st.Scripts) != 3 {
		t.Fatalf("Scripts = %+v, want 3", st.Scripts)
	}
	first := st.Scripts[0]
	want := Script{ID: "script-1", Code: `print("a b")`, Mode: ScriptExecute, Language: "python", Async: true, Cache: true, Line: 1}
	if first != want {
		t.Errorf("Scripts[0] = %+v, want %+v", first, want)
	}

	second := st.Scripts[1]
	if second.Mode != ScriptOutput || second.Language != defaultScriptLanguage || second.Code != "console.log(1 < 2)" {
		t.Errorf("Scripts[1] = %+v", second)
	}

	third := st.Scripts[2]
	if third.Language != "ruby" || third.Cache || third.Code != "puts 1\n\nputs 2" {
		t.Errorf("Scripts[2] = %+v", third)
	}

	assertHTML(t, got,
		[]string{
			`<div class="mdpp-script mdpp-script-execute" data-script-id="script-1" data-script-mode="execute"`,
			`data-script-code="print(%22a%20b%22)"`,
			`class="mdpp-script mdpp-script-output"`,
		},
		[]string{"<script", "<p>puts"},
	)
}

func TestScripts_VerbatimCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "heading marker and blank line",
			input: ":::script{lang=python}\n# comment\nx = 1\n\ny = 2\n:::",
			want:  "# comment\nx = 1\n\ny = 2",
		},
		{
			name:  "list markers",
			input: ":::script{lang=yaml}\n- a\n- b\n  - c\n:::",
			want:  "- a\n- b\n  - c",
		},
		{
			name:  "indentation and emphasis markers",
			input: ":::script{lang=python}\n\n    if x:\n        y = a*b*c\n\n:::",
			want:  "    if x:\n        y = a*b*c",
		},
		{
			name:  "blockquote and thematic break",
			input: ":::script:output\n> not a quote\n---\n:::",
			want:  "> not a quote\n---",
		},
		{
			name:  "code fence with trailing text keeps fences",
			input: ":::script\n```\na()\n```\nb()\n:::",
			want:  "```\na()\n```\nb()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, st := convert(t, testOptions(t, format.MDSC), tt.input)
			if len(st.Scripts) != 1 {
				t.Fatalf("Scripts = %+v, want 1", st.Scripts)
			}
			if got := st.Scripts[0].Code; got != tt.want {
				t.Errorf("Code = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStyles_VerbatimCSS(t *testing.T) {
	t.Parallel()

	src := ":::style\n# not-a-heading { color: red; }\n\n- .x { margin: 0; }\n:::"
	_, st := convert(t, testOptions(t, format.MDSC), src)
	if len(st.Styles) != 1 {
		t.Fatalf("Styles = %+v, want 1", st.Styles)
	}
	want := "# not-a-heading { color: red; }\n\n- .x { margin: 0; }"
	if got := st.Styles[0].Content; got != want {
		t.Errorf("Content = %q, want %q", got, want)
	}
}

func TestEncodeURIComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc-_.!~*'()", "abc-_.!~*'()"},
		{"a b", "a%20b"},
		{"x=1&y=2", "x%3D1%26y%3D2"},
		{"é", "%C3%A9"},
		{"line\nbreak", "line%0Abreak"},
	}

	for _, tt := range tests {
		got := EncodeURIComponent(tt.in)
		if got != tt.want {
			t.Errorf("EncodeURIComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if back, err := url.PathUnescape(got); err != nil || back != tt.in {
			t.Errorf("PathUnescape(%q) = %q, %v", got, back, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestStyles
// ---------------------------------------------------------------------------

func TestStyles(t *testing.T) {
	t.Parallel()

	src := ":::style{scoped}\n.note { color: red; }\n:::\n\n" +
		":::style\n:::\n\n" +
		"::link-css{url=\"https://cdn.example.com/theme.css\"}\n\n" +
		"::link-css\n\n" +
		":::style{#custom}\na::after { content: \"</style>\"; }\n:::"
	got, st := convert(t, testOptions(t, format.MDSC), src)

	if len(st.Styles) != 3 {
		t.Fatalf("Styles = %+v, want 3", st.Styles)
	}
	if s := st.Styles[0]; s.ID != "style-1" || s.Type != StyleInline || !s.Scoped || s.Content != ".note { color: red; }" {
		t.Errorf("Styles[0] = %+v", s)
	}
	if s := st.Styles[1]; s.Type != StyleExternal || s.Content != "https://cdn.example.com/theme.css" {
		t.Errorf("Styles[1] = %+v", s)
	}
	if s := st.Styles[2]; s.ID != "custom" {
		t.Errorf("Styles[2] = %+v, want id custom", s)
	}

	assertHTML(t, got,
		[]string{
			`<style data-style-id="style-1" data-scoped="true">.note { color: red; }</style>`,
			`<link rel="stylesheet" href="https://cdn.example.com/theme.css" data-style-id="style-2" />`,
			`<\/style>`,
		},
		[]string{"data-directive"},
	)
	if len(st.Errors) != 0 {
		t.Errorf("Errors = %v", st.Errors)
	}
}

func TestStyles_LinkSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config security.Config
		input  string
		linked bool
	}{
		{"dangerous scheme", security.DefaultConfig(), "::link-css{url=\"javascript:alert(1)\"}", false},
		{"blocked domain", security.Config{BlockedDomains: []string{"*.evil.test"}}, "::link-css{url=\"https://cdn.evil.test/x.css\"}", false},
		{"strict unlisted", security.Config{Profile: security.ProfileStrict}, "::link-css{url=\"https://cdn.example.com/x.css\"}", false},
		{"strict allowed", security.Config{Profile: security.ProfileStrict, AllowedDomains: []string{"cdn.example.com"}}, "::link-css{url=\"https://cdn.example.com/x.css\"}", true},
		{"relative", security.Config{Profile: security.ProfileStrict}, "::link-css{href=\"theme.css\"}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := testOptions(t, format.MDSC)
			opts.Security = tt.config
			got, st := convert(t, opts, tt.input)

			if linked := strings.Contains(got, "<link "); linked != tt.linked {
				t.Errorf("linked = %v, want %v:\n%s", linked, tt.linked, got)
			}
			blocked := len(st.Errors) == 1 && st.Errors[0].Kind == KindSecurityBlocked
			if blocked == tt.linked {
				t.Errorf("Errors = %v, want blocked=%v", st.Errors, !tt.linked)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestVariables
// ---------------------------------------------------------------------------

func TestVariables(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, format.MDSC)
	opts.Variables = map[string]any{"user_name": "Ada <Lovelace>", "n": 3}

	src := "Hello {{user_name}}, you have {{ n }} items and {{missing}}.\n\n" +
		"Code `{{user_name}}` stays.\n\n```\n{{user_name}}\n```\n\n" +
		"::ai-generate{prompt=\"Greet {{user_name}}\"}"
	got, st := convert(t, opts, src)

	assertHTML(t, got,
		[]string{
			"<p>Hello Ada &lt;Lovelace&gt;, you have 3 items and {{missing}}.</p>",
			"<code>{{user_name}}</code>",
			`data-ai-prompt="Greet {{user_name}}"`,
		},
		nil,
	)
	if n := strings.Count(got, "Ada"); n != 1 {
		t.Errorf("variable substituted %d times, want only the paragraph:\n%s", n, got)
	}
	if st.Placeholders[0].Prompt != "Greet {{user_name}}" {
		t.Errorf("prompt = %q", st.Placeholders[0].Prompt)
	}
}

func TestVariables_DisabledOutsideMDSC(t *testing.T) {
	t.Parallel()

	opts := testOptions(t, format.MDPlus)
	opts.Variables = map[string]any{"name": "Ada"}
	got, _ := convert(t, opts, "Hi {{name}}")
	assertHTML(t, got, []string{"Hi {{name}}"}, []string{"Ada"})
}

// ---------------------------------------------------------------------------
// TestBanners
// ---------------------------------------------------------------------------

const testAlertTemplate = `<div class="mdpp-alert mdpp-alert-{{.Severity}}" data-error-kind="{{.Kind}}">` +
	`<strong>{{.Title}}</strong> {{.Message}}{{if .Line}} (line {{.Line}}){{end}}` +
	`{{if .Details}}<details><pre>{{.Details}}</pre></details>{{end}}</div>`

func TestBannerRenderer(t *testing.T) {
	t.Parallel()

	b, err := NewBannerRenderer(testAlertTemplate)
	if err != nil {
		t.Fatalf("NewBannerRenderer() error: %v", err)
	}

	errs := []RenderError{
		{Kind: KindMissingPlugin, Message: `Plugin "x" is not registered`, Position: &Position{Line: 4}},
		{Kind: KindSecurityBlocked, Message: "Blocked", Details: "<onclick>"},
	}
	got, err := b.Render(errs)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	assertHTML(t, got,
		[]string{
			`mdpp-alert-warning" data-error-kind="missing-plugin"`,
			"Plugin &#34;x&#34; is not registered (line 4)",
			`mdpp-alert-danger" data-error-kind="security-blocked"`,
			"<pre>&lt;onclick&gt;</pre>",
		},
		[]string{"<onclick>"},
	)

	if empty, err := b.Render(nil); err != nil || empty != "" {
		t.Errorf("Render(nil) = %q, %v", empty, err)
	}
}

func TestBannerRenderer_InvalidTemplate(t *testing.T) {
	t.Parallel()

	if _, err := NewBannerRenderer("{{.Broken"); !errors.Is(err, ErrBannerRender) {
		t.Errorf("NewBannerRenderer() error = %v, want ErrBannerRender", err)
	}

	b, err := NewBannerRenderer("{{.NoSuchField}}")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Render([]RenderError{{Kind: KindNestingError}}); !errors.Is(err, ErrBannerRender) {
		t.Errorf("Render() error = %v, want ErrBannerRender", err)
	}
}

func TestRenderError_Error(t *testing.T) {
	t.Parallel()

	e := RenderError{Kind: KindNestingError, Message: "no", Position: &Position{Line: 2}}
	if got := e.Error(); got != "nesting-error (line 2): no" {
		t.Errorf("Error() = %q", got)
	}
	e.Position = nil
	if got := e.Error(); got != "nesting-error: no" {
		t.Errorf("Error() = %q", got)
	}
}
