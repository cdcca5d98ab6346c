package placeholder

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches {{ name }} and dotted paths like {{ user.name }}.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z0-9_-]+)*)\s*\}\}`)

// Interpolate substitutes {{name}} tokens from vars. Strings are inserted
// verbatim, other scalars through fmt, and maps, slices and structs as
// compact JSON. Unknown tokens are left as written.
func Interpolate(prompt string, vars map[string]any) string {
	if len(vars) == 0 || !strings.Contains(prompt, "{{") {
		return prompt
	}
	return tokenPattern.ReplaceAllStringFunc(prompt, func(token string) string {
		path := tokenPattern.FindStringSubmatch(token)[1]
		v, ok := Lookup(vars, path)
		if !ok {
			return token
		}
		return Stringify(v)
	})
}

// Tokens lists the distinct token paths referenced by s, sorted.
func Tokens(s string) []string {
	matches := tokenPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out
}

// Referenced returns the top-level variables that s refers to, or nil.
func Referenced(s string, vars map[string]any) map[string]any {
	if len(vars) == 0 {
		return nil
	}
	var out map[string]any
	for _, path := range Tokens(s) {
		root, _, _ := strings.Cut(path, ".")
		v, ok := vars[root]
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[root] = v
	}
	return out
}

// Lookup resolves a dotted path through nested maps.
func Lookup(vars map[string]any, path string) (any, bool) {
	var cur any = vars
	for _, key := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// Stringify renders a variable value for insertion into text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
