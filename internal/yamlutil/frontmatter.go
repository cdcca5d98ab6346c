package yamlutil

import (
	"bytes"
	"errors"
	"fmt"
)

// FrontmatterDelimiter opens and closes a YAML frontmatter block.
const FrontmatterDelimiter = "---"

// ErrFrontmatterUnclosed indicates an opening delimiter without a closing one.
var ErrFrontmatterUnclosed = errors.New("yamlutil: frontmatter is not closed")

var bom = []byte("\xef\xbb\xbf")

// SplitFrontmatter separates a leading YAML frontmatter block from the
// document body. A document without frontmatter is returned whole with a
// nil map. An empty block yields an empty, non-nil map.
func SplitFrontmatter(data []byte) (map[string]any, []byte, error) {
	content := bytes.TrimPrefix(data, bom)
	rest, ok := cutDelimiterLine(content)
	if !ok {
		return nil, data, nil
	}

	var header []byte
	var body []byte
	if next, ok := cutDelimiterLine(rest); ok {
		// Empty block: "---\n---\n".
		body = next
	} else {
		idx := bytes.Index(rest, []byte("\n"+FrontmatterDelimiter))
		for idx >= 0 {
			if after, ok := cutDelimiterLine(rest[idx+1:]); ok {
				header, body = rest[:idx], after
				break
			}
			next := bytes.Index(rest[idx+1:], []byte("\n"+FrontmatterDelimiter))
			if next < 0 {
				idx = -1
				break
			}
			idx += 1 + next
		}
		if idx < 0 {
			return nil, data, ErrFrontmatterUnclosed
		}
	}

	front := map[string]any{}
	if len(bytes.TrimSpace(header)) == 0 {
		return front, body, nil
	}
	if err := Unmarshal(header, &front); err != nil {
		return nil, data, fmt.Errorf("frontmatter: %w", err)
	}
	if front == nil {
		front = map[string]any{}
	}
	return front, body, nil
}

// cutDelimiterLine reports whether b starts with a line holding only the
// delimiter, returning what follows that line.
func cutDelimiterLine(b []byte) ([]byte, bool) {
	if !bytes.HasPrefix(b, []byte(FrontmatterDelimiter)) {
		return nil, false
	}
	line, rest, found := bytes.Cut(b, []byte("\n"))
	if string(bytes.TrimRight(line, " \t\r")) != FrontmatterDelimiter {
		return nil, false
	}
	if !found {
		return nil, true
	}
	return rest, true
}
