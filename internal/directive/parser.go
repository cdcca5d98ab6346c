package directive

import (
	"bytes"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser priorities relative to goldmark's defaults (lower runs first).
const (
	priorityBlockParser  = 150 // before lists and thematic breaks
	priorityInlineParser = 150 // after code spans, before links
	priorityHTMLRenderer = 500
)

type blockParser struct{}

// NewBlockParser returns a parser for container and leaf directives.
func NewBlockParser() parser.BlockParser {
	return &blockParser{}
}

func (p *blockParser) Trigger() []byte {
	return []byte{':'}
}

func (p *blockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) || line[pos] != ':' {
		return nil, parser.NoChildren
	}
	i := pos
	for i < len(line) && line[i] == ':' {
		i++
	}
	fence := i - pos
	if fence < 2 {
		return nil, parser.NoChildren
	}
	name, n := ParseQualifiedName(line[i:])
	if n == 0 {
		return nil, parser.NoChildren
	}

	base := segment.Start - segment.Padding
	header := Header{
		Name: name,
		Line: lineOf(pc, reader.Source(), base+pos),
	}
	j := i + n

	var label text.Segment
	if j < len(line) && line[j] == '[' {
		start, stop, consumed, err := ParseLabel(line[j:])
		header.HasLabel = true
		header.Label = strings.TrimSpace(string(line[j+start : j+stop]))
		header.SyntaxError = err
		label = text.NewSegment(base+j+start, base+j+stop)
		label = label.TrimLeftSpace(reader.Source())
		label = label.TrimRightSpace(reader.Source())
		j += consumed
	}
	if j < len(line) && line[j] == '{' {
		attrs, consumed, err := ParseAttrs(line[j:])
		header.Attrs = attrs
		header.SyntaxError = firstErr(header.SyntaxError, err)
		j += consumed
	}
	if !util.IsBlank(line[j:]) {
		return nil, parser.NoChildren
	}

	advanceToEOL(reader, line, segment)

	if fence == 2 {
		leaf := &LeafDirective{Header: header}
		if label.Len() > 0 {
			leaf.Lines().Append(label)
		}
		return leaf, parser.NoChildren
	}

	container := &ContainerDirective{Header: header, Fence: fence}
	if label.Len() > 0 {
		para := ast.NewParagraph()
		para.Lines().Append(label)
		container.AppendChild(container, para)
		container.labelNode = para
	}
	return container, parser.HasChildren
}

func (p *blockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	container, ok := node.(*ContainerDirective)
	if !ok {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 && pos < len(line) && line[pos] == ':' {
		i := pos
		for i < len(line) && line[i] == ':' {
			i++
		}
		length := i - pos
		if length >= container.Fence && util.IsBlank(line[i:]) && !deferClose(container, length, pc) {
			advanceToEOL(reader, line, segment)
			return parser.Close
		}
	}
	container.body.Append(segment)
	return parser.Continue | parser.HasChildren
}

func (p *blockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *blockParser) CanInterruptParagraph() bool {
	return true
}

func (p *blockParser) CanAcceptIndentedLine() bool {
	return false
}

// deferClose reports whether a closing fence belongs to something opened
// inside container: a fenced code block, or a nested container whose own
// fence the line also satisfies.
func deferClose(container *ContainerDirective, length int, pc parser.Context) bool {
	blocks := pc.OpenedBlocks()
	inside := false
	for _, b := range blocks {
		if b.Node == container {
			inside = true
			continue
		}
		if !inside {
			continue
		}
		switch n := b.Node.(type) {
		case *ast.FencedCodeBlock:
			return true
		case *ContainerDirective:
			if n.Fence <= length {
				return true
			}
		}
	}
	return false
}

func advanceToEOL(reader text.Reader, line []byte, segment text.Segment) {
	newline := 0
	if len(line) > 0 && line[len(line)-1] == '\n' {
		newline = 1
	}
	reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
}

type inlineParser struct{}

// NewInlineParser returns a parser for text directives.
func NewInlineParser() parser.InlineParser {
	return &inlineParser{}
}

func (p *inlineParser) Trigger() []byte {
	return []byte{':'}
}

// Parse accepts `:name[label]{attrs}` where at least one of the label or
// attribute block is present. Text directives are strict: a malformed
// label or attribute block leaves the text untouched.
func (p *inlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	prev := block.PrecendingCharacter()
	if prev == ':' || unicode.IsLetter(prev) || unicode.IsDigit(prev) {
		return nil
	}
	line, segment := block.PeekLine()
	if len(line) < 3 || line[1] == ':' {
		return nil
	}
	name, n := ParseQualifiedName(line[1:])
	if n == 0 {
		return nil
	}

	base := segment.Start - segment.Padding
	node := &TextDirective{Header: Header{
		Name: name,
		Line: lineOf(pc, block.Source(), base),
	}}
	i := 1 + n
	hasAttrs := false

	var label text.Segment
	if i < len(line) && line[i] == '[' {
		start, stop, consumed, err := ParseLabel(line[i:])
		if err != nil {
			return nil
		}
		node.HasLabel = true
		node.Label = string(line[i+start : i+stop])
		label = text.NewSegment(base+i+start, base+i+stop)
		i += consumed
	}
	if i < len(line) && line[i] == '{' {
		attrs, consumed, err := ParseAttrs(line[i:])
		if err != nil {
			return nil
		}
		node.Attrs = attrs
		hasAttrs = true
		i += consumed
	}
	if !node.HasLabel && !hasAttrs {
		return nil
	}

	if label.Len() > 0 {
		node.AppendChild(node, ast.NewTextSegment(label))
	}
	block.Advance(i)
	return node
}

var newlinesKey = parser.NewContextKey()

// lineOf returns the 1-based line number of offset in source. Newline
// offsets are indexed once per document and kept in pc.
func lineOf(pc parser.Context, source []byte, offset int) int {
	newlines, ok := pc.Get(newlinesKey).([]int)
	if !ok {
		newlines = indexNewlines(source)
		pc.Set(newlinesKey, newlines)
	}
	offset = max(0, min(offset, len(source)))
	return sort.SearchInts(newlines, offset) + 1
}

func indexNewlines(source []byte) []int {
	out := make([]int, 0, bytes.Count(source, []byte{'\n'}))
	for i, c := range source {
		if c == '\n' {
			out = append(out, i)
		}
	}
	return out
}
