// Package placeholder describes AI-generation placeholders and the utilities
// that operate on them after rendering: prompt interpolation, recovery of
// placeholders from HTML and replacement of generated content.
package placeholder

import (
	"strconv"
	"unicode/utf8"
)

// Type is the placeholder form.
type Type string

const (
	TypeInline Type = "inline"
	TypeBlock  Type = "block"
)

// Format is the expected shape of generated content.
type Format string

const (
	FormatParagraph Format = "paragraph"
	FormatList      Format = "list"
	FormatTable     Format = "table"
	FormatInline    Format = "inline"
)

// Status tracks a placeholder through downstream generation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Data attribute names shared by rendering and extraction.
const (
	AttrID       = "data-ai-id"
	AttrType     = "data-ai-type"
	AttrPrompt   = "data-ai-prompt"
	AttrFormat   = "data-ai-format"
	AttrStatus   = "data-ai-status"
	AttrFallback = "data-ai-fallback"
	AttrLine     = "data-ai-line"
)

// Preview lengths in runes.
const (
	PreviewBlock  = 50
	PreviewInline = 30
	ellipsis      = "…"
)

// Placeholder marks a location for content generated outside this module.
type Placeholder struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Prompt    string         `json:"prompt"`
	Format    Format         `json:"format"`
	Fallback  string         `json:"fallback,omitempty"`
	Status    Status         `json:"status"`
	Variables map[string]any `json:"variables,omitempty"`
	Line      int            `json:"line,omitempty"`
}

// ParseFormat maps a block format attribute to a Format.
// Unknown and empty values become FormatParagraph.
func ParseFormat(s string) Format {
	switch f := Format(s); f {
	case FormatParagraph, FormatList, FormatTable, FormatInline:
		return f
	default:
		return FormatParagraph
	}
}

// DataAttrs returns the data attributes in rendering order.
// The fallback is omitted when empty, the line when unknown.
func (p *Placeholder) DataAttrs() [][2]string {
	attrs := [][2]string{
		{AttrID, p.ID},
		{AttrType, string(p.Type)},
		{AttrPrompt, p.Prompt},
		{AttrFormat, string(p.Format)},
		{AttrStatus, string(p.Status)},
	}
	if p.Fallback != "" {
		attrs = append(attrs, [2]string{AttrFallback, p.Fallback})
	}
	if p.Line > 0 {
		attrs = append(attrs, [2]string{AttrLine, strconv.Itoa(p.Line)})
	}
	return attrs
}

// Display returns the text shown before generation: the fallback when
// set, else the prompt truncated for the placeholder type.
func (p *Placeholder) Display() string {
	if p.Fallback != "" {
		return p.Fallback
	}
	limit := PreviewBlock
	if p.Type == TypeInline {
		limit = PreviewInline
	}
	return Truncate(p.Prompt, limit)
}

// Truncate shortens s to limit runes and appends an ellipsis when cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + ellipsis
		}
		n++
	}
	return s
}
