package placeholder

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	ErrNotFound      = errors.New("placeholder not found")
	ErrInvalidStatus = errors.New("replacement status must be completed or error")
	ErrMalformedHTML = errors.New("malformed placeholder html")
)

// statusAttr matches the status attribute inside a raw start tag.
var statusAttr = regexp.MustCompile(`data-ai-status\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)

// Extract recovers placeholders from rendered HTML through their data
// attributes, in document order. Variables are not recoverable.
func Extract(src string) []Placeholder {
	z := html.NewTokenizer(strings.NewReader(src))
	var out []Placeholder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if p, ok := fromAttrs(tok.Attr); ok {
			out = append(out, p)
		}
	}
}

func fromAttrs(attrs []html.Attribute) (Placeholder, bool) {
	var p Placeholder
	found := false
	for _, a := range attrs {
		switch a.Key {
		case AttrID:
			p.ID = a.Val
			found = true
		case AttrType:
			p.Type = Type(a.Val)
		case AttrPrompt:
			p.Prompt = a.Val
		case AttrFormat:
			p.Format = Format(a.Val)
		case AttrStatus:
			p.Status = Status(a.Val)
		case AttrFallback:
			p.Fallback = a.Val
		case AttrLine:
			p.Line, _ = strconv.Atoi(a.Val)
		}
	}
	return p, found
}

// Replace swaps the inner HTML of the placeholder with the given id for
// content and sets its status. Bytes outside that element are unchanged.
func Replace(src, id, content string, status Status) (string, error) {
	if status != StatusCompleted && status != StatusError {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	z := html.NewTokenizer(strings.NewReader(src))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return "", fmt.Errorf("%w: %q", ErrNotFound, id)
			}
			return "", fmt.Errorf("%w: %v", ErrMalformedHTML, z.Err())
		}
		raw := string(z.Raw())
		start := offset
		offset += len(raw)

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if !hasID(tok.Attr, id) {
			continue
		}

		openTag := withStatus(raw, status)
		if tt == html.SelfClosingTagToken {
			openTag = strings.TrimSuffix(strings.TrimRight(strings.TrimSuffix(openTag, ">"), " /"), "/") + ">"
			return src[:start] + openTag + content + "</" + tok.Data + ">" + src[offset:], nil
		}

		end, err := matchingEnd(z, tok.Data, offset)
		if err != nil {
			return "", err
		}
		return src[:start] + openTag + content + src[end:], nil
	}
}

// matchingEnd scans forward for the end tag balancing an open tag and
// returns its byte offset.
func matchingEnd(z *html.Tokenizer, tag string, offset int) (int, error) {
	depth := 1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return 0, fmt.Errorf("%w: unclosed <%s>", ErrMalformedHTML, tag)
		}
		start := offset
		offset += len(z.Raw())

		name, _ := z.TagName()
		if string(name) != tag {
			continue
		}
		switch tt {
		case html.StartTagToken:
			depth++
		case html.EndTagToken:
			depth--
			if depth == 0 {
				return start, nil
			}
		}
	}
}

func hasID(attrs []html.Attribute, id string) bool {
	for _, a := range attrs {
		if a.Key == AttrID && a.Val == id {
			return true
		}
	}
	return false
}

// withStatus rewrites or inserts the status attribute in a raw start tag.
func withStatus(raw string, status Status) string {
	attr := AttrStatus + `="` + string(status) + `"`
	if statusAttr.MatchString(raw) {
		return statusAttr.ReplaceAllLiteralString(raw, attr)
	}
	i := strings.LastIndexByte(raw, '>')
	if i < 0 {
		return raw
	}
	j := i
	if j > 0 && raw[j-1] == '/' {
		j--
	}
	return raw[:j] + " " + attr + raw[j:]
}
