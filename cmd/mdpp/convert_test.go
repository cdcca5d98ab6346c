package main

// Notes:
// - run: we drive the CLI end to end with the real parser against temp
//   directories and an injected Environment, checking exit codes, files
//   written and messages.
// - Kroki is disabled in every conversion so no test depends on the
//   network; diagram output is covered by the library tests.
// - --no-color mutates a process-wide setting, so it is not exercised here.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

// runCLI runs the CLI with Kroki disabled and returns the exit code and
// both output streams.
func runCLI(t *testing.T, vars map[string]string, args ...string) (int, string, string) {
	t.Helper()
	env, stdout, stderr := newTestEnv(vars)
	code := run(context.Background(), append(args, "--kroki-url", "off"), env)
	return code, stdout.String(), stderr.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q\ngot: %s", w, got)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRun_Commands - Non-convert commands
// ---------------------------------------------------------------------------

func TestRun_Commands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"version", []string{"version"}, ExitSuccess, "mdpp dev", ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"help convert", []string{"help", "convert"}, ExitSuccess, "--standalone", ""},
		{"help unknown", []string{"help", "nope"}, ExitUsage, "", "Unknown command: nope"},
		{"plugins", []string{"plugins"}, ExitSuccess, "bootstrap", ""},
		{"convert help", []string{"convert", "--help"}, ExitSuccess, "", "Usage: mdpp convert"},
		{"unknown flag", []string{"--page-size", "a4", "doc.md"}, ExitUsage, "", "error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv(nil)
			code := run(context.Background(), tt.args, env)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" {
				assertContains(t, stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assertContains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRun_PluginsListsComponents(t *testing.T) {
	t.Parallel()

	env, stdout, _ := newTestEnv(nil)
	if code := run(context.Background(), []string{"plugins"}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	assertContains(t, stdout.String(), "bootstrap\n", "tailwind\n", "alert")
}

// ---------------------------------------------------------------------------
// TestRun_Convert - End-to-end conversion
// ---------------------------------------------------------------------------

func TestRun_ConvertFragment(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"doc.mdplus":       ":::bootstrap:alert{variant=success}\nSaved.\n:::\n",
		"guide/intro.md":   "# Intro\n",
		"guide/skip.txt":   "ignored",
		".drafts/draft.md": "# Draft\n",
	})
	out := filepath.Join(dir, "site")

	code, stdout, stderr := runCLI(t, nil, "-p", "bootstrap", "-o", out, dir)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	html := readFile(t, filepath.Join(out, "doc.html"))
	assertContains(t, html, "alert alert-success", "<p>Saved.</p>")
	if strings.Contains(html, "<html") {
		t.Error("fragment output should not be a full document")
	}
	assertContains(t, readFile(t, filepath.Join(out, "guide", "intro.html")), `<h1 id="intro">Intro</h1>`)
	if _, err := os.Stat(filepath.Join(out, ".drafts")); !os.IsNotExist(err) {
		t.Error("hidden directories should be skipped")
	}
	assertContains(t, stdout, "Created", "2 succeeded, 0 failed")
}

func TestRun_ConvertStandaloneWithFrontmatter(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"guide.mdsc": "---\ntitle: Field Guide\nvariables:\n  name: Ada\n---\n# Welcome\n\n## Setup\n\nHello {{name}}.\n",
	})

	code, _, stderr := runCLI(t, nil, "--standalone", "--lang", "fr", "--toc", filepath.Join(dir, "guide.mdsc"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	html := readFile(t, filepath.Join(dir, "guide.html"))
	assertContains(t, html,
		"<!DOCTYPE html>",
		`<html lang="fr">`,
		"<title>Field Guide</title>",
		"Hello Ada.",
		`href="#setup"`,
	)
	if strings.Contains(html, "title: Field Guide") {
		t.Error("frontmatter should be stripped from the body")
	}
}

func TestRun_ConvertJSONSideChannel(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"page.mdsc": "Intro.\n\n::ai-generate{prompt=\"Summarize\"}\n\n:::script\nprint(1)\n:::\n",
	})

	code, _, stderr := runCLI(t, nil, "--json", filepath.Join(dir, "page.mdsc"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	var side struct {
		Format       string `json:"format"`
		Placeholders []struct {
			ID     string `json:"id"`
			Prompt string `json:"prompt"`
		} `json:"placeholders"`
		Scripts []json.RawMessage `json:"scripts"`
		Errors  []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "page.json"))), &side); err != nil {
		t.Fatalf("side-channel is not JSON: %v", err)
	}
	if side.Format != "mdsc" {
		t.Errorf("format = %q, want mdsc", side.Format)
	}
	if len(side.Placeholders) != 1 || side.Placeholders[0].Prompt != "Summarize" {
		t.Errorf("placeholders = %+v", side.Placeholders)
	}
	if len(side.Scripts) != 1 {
		t.Errorf("scripts = %d, want 1", len(side.Scripts))
	}
	if side.Errors == nil {
		t.Error("errors should be an empty list, not null")
	}
}

func TestRun_ConvertManifestPlugin(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"acme.yaml": "framework: acme\ncomponents:\n  box:\n    classes: [acme-box]\n",
		"doc.mdpp":  ":::acme:box\nInside\n:::\n",
	})

	code, _, stderr := runCLI(t, nil, "--plugin", filepath.Join(dir, "acme.yaml"), filepath.Join(dir, "doc.mdpp"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	assertContains(t, readFile(t, filepath.Join(dir, "doc.html")), `class="acme-box"`)
}

func TestRun_ConvertConfigFile(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"mdpp.yaml": "plugins: [bootstrap]\n" +
			"output:\n  standalone: true\n" +
			"document:\n  lang: de\n" +
			"variables:\n  team: Core\n",
		"doc.mdsc": "---\nvariables:\n  name: Ada\n---\n{{name}} of {{team}}\n\n:::bootstrap:alert\nA\n:::\n",
	})

	code, _, stderr := runCLI(t, nil, "-c", filepath.Join(dir, "mdpp.yaml"), filepath.Join(dir, "doc.mdsc"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	assertContains(t, readFile(t, filepath.Join(dir, "doc.html")),
		`<html lang="de">`, "Ada of Core", "alert", "bootstrap")
}

func TestRun_ConvertEnvFormat(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"doc.mdplus": ":::bootstrap:alert\nX\n:::\n",
	})

	code, _, stderr := runCLI(t, map[string]string{"MDPP_FORMAT": "md"}, "-p", "bootstrap", filepath.Join(dir, "doc.mdplus"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if html := readFile(t, filepath.Join(dir, "doc.html")); strings.Contains(html, `class="alert"`) {
		t.Errorf("md format should leave components unresolved: %s", html)
	}
}

func TestRun_ConvertWarnings(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"doc.mdplus": ":::bulma:box\nX\n:::\n",
	})

	code, stdout, _ := runCLI(t, nil, "--suppress-errors", filepath.Join(dir, "doc.mdplus"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want success with warnings", code)
	}
	assertContains(t, stdout, "(1 warning)")
	if html := readFile(t, filepath.Join(dir, "doc.html")); strings.Contains(html, "mdpp-alert") {
		t.Error("suppressed errors should not render banners")
	}
}

// ---------------------------------------------------------------------------
// TestRun_Errors - Exit codes for failures
// ---------------------------------------------------------------------------

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"doc.md":      "# Doc\n",
		"bad.mdplus":  "---\ntitle: [unclosed\n---\nbody\n",
		"notes.txt":   "text",
		"broken.json": `{"components":{}}`,
	})

	tests := []struct {
		name       string
		vars       map[string]string
		args       []string
		wantCode   int
		wantStderr []string
	}{
		{
			name:       "unknown builtin plugin",
			args:       []string{"-p", "bulma", filepath.Join(dir, "doc.md")},
			wantCode:   ExitUsage,
			wantStderr: []string{"plugin not found", "hint:", "bootstrap"},
		},
		{
			name:       "invalid manifest",
			args:       []string{"-p", filepath.Join(dir, "broken.json"), filepath.Join(dir, "doc.md")},
			wantCode:   ExitUsage,
			wantStderr: []string{"hint:"},
		},
		{
			name:     "missing manifest",
			args:     []string{"-p", filepath.Join(dir, "missing.json"), filepath.Join(dir, "doc.md")},
			wantCode: ExitIO,
		},
		{
			name:       "unknown format",
			args:       []string{"-f", "rst", filepath.Join(dir, "doc.md")},
			wantCode:   ExitUsage,
			wantStderr: []string{"hint:"},
		},
		{
			name:     "invalid profile",
			args:     []string{"--security", "paranoid", filepath.Join(dir, "doc.md")},
			wantCode: ExitUsage,
		},
		{
			name:     "too many workers",
			args:     []string{"-w", "99", filepath.Join(dir, "doc.md")},
			wantCode: ExitUsage,
		},
		{
			name:     "unsupported extension",
			args:     []string{filepath.Join(dir, "notes.txt")},
			wantCode: ExitUsage,
		},
		{
			name:     "missing input",
			args:     []string{filepath.Join(dir, "missing.md")},
			wantCode: ExitIO,
		},
		{
			name:     "no input",
			args:     []string{},
			wantCode: ExitIO,
		},
		{
			name:       "missing config",
			args:       []string{"-c", filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "doc.md")},
			wantCode:   ExitUsage,
			wantStderr: []string{"config file not found"},
		},
		{
			name:       "invalid frontmatter fails the file",
			args:       []string{filepath.Join(dir, "bad.mdplus")},
			wantCode:   ExitGeneral,
			wantStderr: []string{"FAILED", "invalid frontmatter"},
		},
		{
			name:       "unknown env var warns",
			vars:       map[string]string{"MDPP_FROMAT": "md"},
			args:       []string{filepath.Join(dir, "doc.md")},
			wantCode:   ExitSuccess,
			wantStderr: []string{"unknown environment variable MDPP_FROMAT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, _, stderr := runCLI(t, tt.vars, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			assertContains(t, stderr, tt.wantStderr...)
		})
	}
}
