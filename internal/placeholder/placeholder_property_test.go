//go:build property
// +build property

package placeholder

import (
	"html"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestReplaceProperties checks that replaced placeholders are recovered
// with their new status.
func TestReplaceProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("replace then extract reports the new status", prop.ForAll(
		func(prompt, content string, failed bool) bool {
			status := StatusCompleted
			if failed {
				status = StatusError
			}
			src := `<p>before</p><div class="ai-placeholder" data-ai-id="ai-1" data-ai-type="block" data-ai-prompt="` +
				html.EscapeString(prompt) + `" data-ai-status="pending">x</div><p>after</p>`

			out, err := Replace(src, "ai-1", html.EscapeString(content), status)
			if err != nil {
				return false
			}
			got := Extract(out)
			return len(got) == 1 && got[0].Status == status && got[0].Prompt == prompt
		},
		gen.AlphaString(),
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
