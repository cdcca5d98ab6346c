package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"
)

// ErrBannerRender is returned when the alert template fails to execute.
var ErrBannerRender = errors.New("error banner rendering failed")

// ErrorKind classifies a RenderError.
type ErrorKind string

const (
	KindMissingPlugin    ErrorKind = "missing-plugin"
	KindUnknownComponent ErrorKind = "unknown-component"
	KindInvalidSyntax    ErrorKind = "invalid-syntax"
	KindNestingError     ErrorKind = "nesting-error"
	KindSecurityBlocked  ErrorKind = "security-blocked"
)

// maxListedComponents bounds the "available components" hint.
const maxListedComponents = 10

// Position locates an error in the preprocessed document.
type Position struct {
	Line int `json:"line"`
}

// RenderError is a recoverable problem found while resolving directives.
// Conversion continues; errors are reported alongside the HTML.
type RenderError struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	Details  string    `json:"details,omitempty"`
	Position *Position `json:"position,omitempty"`
}

func (e RenderError) Error() string {
	if e.Position != nil {
		return fmt.Sprintf("%s (line %d): %s", e.Kind, e.Position.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Severity returns the banner level: "danger" for syntax and security
// problems, "warning" otherwise.
func (e RenderError) Severity() string {
	switch e.Kind {
	case KindInvalidSyntax, KindSecurityBlocked:
		return "danger"
	default:
		return "warning"
	}
}

// Title is the short banner heading.
func (e RenderError) Title() string {
	switch e.Kind {
	case KindMissingPlugin:
		return "Missing plugin"
	case KindUnknownComponent:
		return "Unknown component"
	case KindInvalidSyntax:
		return "Invalid syntax"
	case KindNestingError:
		return "Nesting not allowed"
	case KindSecurityBlocked:
		return "Blocked by security policy"
	default:
		return "Error"
	}
}

// Line returns the 1-based source line, or 0 when unknown.
func (e RenderError) Line() int {
	if e.Position == nil {
		return 0
	}
	return e.Position.Line
}

func (s *State) report(kind ErrorKind, line int, message, details string) {
	e := RenderError{Kind: kind, Message: message, Details: details}
	if line > 0 {
		e.Position = &Position{Line: line}
	}
	s.Errors = append(s.Errors, e)
	s.opts.Logger.Debug(LogMsgRenderError,
		zap.String(LogFieldKind, string(kind)),
		zap.Int(LogFieldLine, line),
	)
}

// availableHint lists up to maxListedComponents names.
func availableHint(names []string) string {
	if len(names) == 0 {
		return "The plugin defines no components."
	}
	listed := names
	more := ""
	if len(listed) > maxListedComponents {
		listed = listed[:maxListedComponents]
		more = fmt.Sprintf(" (and %d more)", len(names)-maxListedComponents)
	}
	return "Available components: " + strings.Join(listed, ", ") + more
}

// BannerRenderer turns RenderErrors into visible HTML alerts.
type BannerRenderer struct {
	tmpl *template.Template
}

// NewBannerRenderer parses the alert template. The template receives a
// RenderError and may call its Severity, Title and Line methods.
func NewBannerRenderer(tmplContent string) (*BannerRenderer, error) {
	tmpl, err := template.New("alert").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBannerRender, err)
	}
	return &BannerRenderer{tmpl: tmpl}, nil
}

// Render returns the banners for errs, in order.
func (b *BannerRenderer) Render(errs []RenderError) (string, error) {
	if len(errs) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	for _, e := range errs {
		if err := b.tmpl.Execute(&buf, e); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBannerRender, err)
		}
	}
	return buf.String(), nil
}
