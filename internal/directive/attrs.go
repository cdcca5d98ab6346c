package directive

import (
	"errors"
	"strings"
)

// Attribute grammar errors. They never abort parsing: the directive keeps
// whatever was read and carries the error for the resolver to report.
var (
	ErrUnterminatedAttrs = errors.New("unterminated attribute block")
	ErrUnterminatedQuote = errors.New("unterminated quoted attribute value")
	ErrUnterminatedLabel = errors.New("unterminated label")
	ErrUnexpectedChar    = errors.New("unexpected character in attribute block")
)

// Attr is a single attribute in source order.
// Shorthands keep their sigil: `.note` is {".note", ""} and `#top` is {"#top", ""}.
type Attr struct {
	Key   string
	Value string
}

// Attrs is an ordered attribute bag. Duplicate keys are kept; readers
// that need one value take the last occurrence.
type Attrs []Attr

// Get returns the last value for key.
func (a Attrs) Get(key string) (string, bool) {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i].Key == key {
			return a[i].Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (a Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Without returns a copy with every listed key removed.
func (a Attrs) Without(keys ...string) Attrs {
	out := make(Attrs, 0, len(a))
next:
	for _, attr := range a {
		for _, k := range keys {
			if attr.Key == k {
				continue next
			}
		}
		out = append(out, attr)
	}
	return out
}

// Clone returns an independent copy.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	copy(out, a)
	return out
}

// String renders the bag back into directive syntax.
func (a Attrs) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(attr.Key)
		if attr.Value != "" {
			b.WriteString(`="`)
			b.WriteString(strings.ReplaceAll(attr.Value, `"`, `&quot;`))
			b.WriteByte('"')
		}
	}
	b.WriteByte('}')
	return b.String()
}

// ParseAttrs reads an attribute block starting at src[0] == '{'.
// It returns the attributes read, the number of bytes consumed and a
// grammar error if the block is malformed. On error the partial bag is
// still returned and consumption stops at the end of the line.
func ParseAttrs(src []byte) (Attrs, int, error) {
	if len(src) == 0 || src[0] != '{' {
		return nil, 0, nil
	}
	var (
		attrs Attrs
		err   error
	)
	i := 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			return attrs, i, firstErr(err, ErrUnterminatedAttrs)
		case c == ' ' || c == '\t':
			i++
		case c == '}':
			return attrs, i + 1, err
		case c == '.' || c == '#':
			j := i + 1
			for j < len(src) && isNameChar(src[j]) {
				j++
			}
			if j == i+1 {
				err = firstErr(err, ErrUnexpectedChar)
				i++
				continue
			}
			attrs = append(attrs, Attr{Key: string(src[i:j])})
			i = j
		case isKeyStart(c):
			j := i + 1
			for j < len(src) && isKeyChar(src[j]) {
				j++
			}
			key := string(src[i:j])
			if j >= len(src) || src[j] != '=' {
				attrs = append(attrs, Attr{Key: key})
				i = j
				continue
			}
			value, n, verr := parseValue(src[j+1:])
			attrs = append(attrs, Attr{Key: key, Value: value})
			if verr != nil {
				return attrs, j + 1 + n, firstErr(err, verr)
			}
			i = j + 1 + n
		default:
			err = firstErr(err, ErrUnexpectedChar)
			i++
		}
	}
	return attrs, i, firstErr(err, ErrUnterminatedAttrs)
}

// parseValue reads a quoted or bare value following '='.
func parseValue(src []byte) (string, int, error) {
	if len(src) == 0 {
		return "", 0, nil
	}
	if q := src[0]; q == '"' || q == '\'' {
		var b strings.Builder
		for i := 1; i < len(src); i++ {
			switch src[i] {
			case '\\':
				if i+1 < len(src) && (src[i+1] == q || src[i+1] == '\\') {
					b.WriteByte(src[i+1])
					i++
					continue
				}
				b.WriteByte('\\')
			case q:
				return b.String(), i + 1, nil
			case '\n':
				return b.String(), i, ErrUnterminatedQuote
			default:
				b.WriteByte(src[i])
			}
		}
		return b.String(), len(src), ErrUnterminatedQuote
	}
	i := 0
	for i < len(src) && src[i] != ' ' && src[i] != '\t' && src[i] != '}' && src[i] != '\n' {
		i++
	}
	return string(src[:i]), i, nil
}

// ParseLabel reads a bracketed label starting at src[0] == '['.
// Brackets nest and backslash escapes are skipped. The returned bounds
// exclude the brackets.
func ParseLabel(src []byte) (start, stop, n int, err error) {
	if len(src) == 0 || src[0] != '[' {
		return 0, 0, 0, nil
	}
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return 1, i, i + 1, nil
			}
		case '\n':
			return 1, i, i, ErrUnterminatedLabel
		}
	}
	return 1, len(src), len(src), ErrUnterminatedLabel
}

// ParseName reads a directive name: a letter followed by letters, digits,
// hyphens or underscores.
func ParseName(src []byte) int {
	if len(src) == 0 || !isLetter(src[0]) {
		return 0
	}
	i := 1
	for i < len(src) && isNameChar(src[i]) {
		i++
	}
	return i
}

// ParseQualifiedName reads a directive name with an optional framework
// qualifier. `framework:component` is returned in its canonical form
// `framework_component`. A framework never contains an underscore, so the
// first underscore of a canonical name always splits it. n is the number
// of bytes consumed.
func ParseQualifiedName(src []byte) (name string, n int) {
	n = ParseName(src)
	if n == 0 {
		return "", 0
	}
	if n < len(src) && src[n] == ':' && !strings.ContainsRune(string(src[:n]), '_') {
		if m := ParseName(src[n+1:]); m > 0 {
			return string(src[:n]) + "_" + string(src[n+1:n+1+m]), n + 1 + m
		}
	}
	return string(src[:n]), n
}

func firstErr(current, next error) error {
	if current != nil {
		return current
	}
	return next
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isKeyStart(c byte) bool {
	return isLetter(c) || c == '_' || c == ':' || c == '@'
}

func isKeyChar(c byte) bool {
	return isNameChar(c) || c == ':' || c == '.' || c == '@'
}
