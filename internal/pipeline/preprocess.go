package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Protected spans are swapped for Private Use Area tokens while the text
// is rewritten. The markers pass through every rewrite untouched and the
// original bytes are restored at the end.
const (
	protectStart = "\uE000"
	protectEnd   = "\uE001"
)

// CalloutDirective is the reserved container name emitted for callouts.
const CalloutDirective = "mdpp-callout"

// calloutFence closes converted callouts. It is longer than common
// hand-written fences so author containers nest inside.
const calloutFence = "::::::"

var (
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// > [!TYPE] optional title
	calloutOpener = regexp.MustCompile(`^( {0,3})>[ \t]?\[!([A-Za-z][A-Za-z0-9-]*)\][+-]?[ \t]*(.*)$`)

	blockquoteLine = regexp.MustCompile(`^( {0,3})>[ \t]?`)

	// Fence opener, optionally inside blockquotes.
	fenceOpener = regexp.MustCompile("^((?: {0,3}>[ \\t]?)*)( {0,3})(`{3,}|~{3,})(.*)$")

	protectedToken = regexp.MustCompile(protectStart + `(\d+)` + protectEnd)
)

// Preprocessor rewrites MD++ text before structural parsing.
type Preprocessor struct {
	Callouts bool // convert > [!TYPE] blockquotes into callout containers
}

// Preprocess normalizes line endings and converts callouts, leaving fenced
// code untouched. Directive names, framework:component included, are left
// to the directive grammar so prose and code keep their text. It never
// fails; a cancelled context returns content unchanged.
func (p *Preprocessor) Preprocess(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = normalizeLineEndings(content)

	var vault protectedSpans
	content = vault.protectFences(content)
	if p.Callouts {
		content = convertCallouts(content)
	}

	return vault.restore(content)
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// protectedSpans stores original text keyed by token index.
type protectedSpans []string

func (v *protectedSpans) token(original string) string {
	*v = append(*v, original)
	return protectStart + strconv.Itoa(len(*v)-1) + protectEnd
}

func (v protectedSpans) restore(content string) string {
	if len(v) == 0 {
		return content
	}
	return protectedToken.ReplaceAllStringFunc(content, func(tok string) string {
		i, err := strconv.Atoi(tok[len(protectStart) : len(tok)-len(protectEnd)])
		if err != nil || i >= len(v) {
			return tok
		}
		return v[i]
	})
}

// protectFences replaces the body of every fenced code block, fence lines
// included, with one token per line. Blockquote prefixes stay visible so
// callout conversion still sees the quote structure. Unterminated fences
// run to the end of the document.
func (v *protectedSpans) protectFences(content string) string {
	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		m := fenceOpener.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		quote, fence, info := m[1], m[3], m[4]
		if fence[0] == '`' && strings.Contains(info, "`") {
			continue
		}
		lines[i] = quote + v.token(lines[i][len(quote):])
		for i+1 < len(lines) {
			i++
			body := strings.TrimPrefix(lines[i], quote)
			if len(body) == len(lines[i]) && quote != "" {
				// Leaving the blockquote ends the fence.
				i--
				break
			}
			lines[i] = quote + v.token(body)
			if isClosingFence(body, fence) {
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func isClosingFence(line, opener string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == opener[0] {
		n++
	}
	return n >= len(opener) && strings.TrimSpace(trimmed[n:]) == ""
}

// convertCallouts turns > [!TYPE] title blockquotes into callout
// containers. The body is converted recursively so quoted callouts nest.
func convertCallouts(content string) string {
	if !strings.Contains(content, "[!") {
		return content
	}
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		m := calloutOpener.FindStringSubmatch(lines[i])
		if m == nil {
			out = append(out, lines[i])
			continue
		}
		indent, kind, title := m[1], strings.ToLower(m[2]), strings.TrimSpace(m[3])

		var body []string
		for i+1 < len(lines) {
			next := lines[i+1]
			if q := blockquoteLine.FindString(next); q != "" {
				body = append(body, next[len(q):])
				i++
				continue
			}
			if strings.TrimSpace(next) == "" && i+2 < len(lines) && blockquoteLine.MatchString(lines[i+2]) {
				body = append(body, "")
				i++
				continue
			}
			break
		}

		out = append(out, indent+calloutOpenerLine(kind, title))
		if len(body) > 0 {
			for _, l := range strings.Split(convertCallouts(strings.Join(body, "\n")), "\n") {
				out = append(out, indent+l)
			}
		}
		out = append(out, indent+calloutFence)
	}
	return strings.Join(out, "\n")
}

func calloutOpenerLine(kind, title string) string {
	var b strings.Builder
	b.WriteString(calloutFence)
	b.WriteString(CalloutDirective)
	if title != "" {
		b.WriteByte('[')
		b.WriteString(escapeLabel(title))
		b.WriteByte(']')
	}
	b.WriteString(`{type="`)
	b.WriteString(kind)
	b.WriteString(`"}`)
	return b.String()
}

var labelEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}
