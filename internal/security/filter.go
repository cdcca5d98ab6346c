// Package security strips dangerous attributes from directive attribute
// bags and decides whether external asset URLs are trusted.
package security

import (
	"strings"

	"github.com/alnah/go-mdpp/internal/directive"
)

// eventHandlers is the deny-list of inline event handler attributes.
var eventHandlers = map[string]struct{}{
	"onabort": {}, "onafterprint": {}, "onanimationend": {}, "onanimationiteration": {},
	"onanimationstart": {}, "onbeforeprint": {}, "onbeforeunload": {}, "onblur": {},
	"oncanplay": {}, "onchange": {}, "onclick": {}, "oncontextmenu": {},
	"oncopy": {}, "oncut": {}, "ondblclick": {}, "ondrag": {},
	"ondragend": {}, "ondragenter": {}, "ondragleave": {}, "ondragover": {},
	"ondragstart": {}, "ondrop": {}, "onerror": {}, "onfocus": {},
	"onfocusin": {}, "onfocusout": {}, "onhashchange": {}, "oninput": {},
	"oninvalid": {}, "onkeydown": {}, "onkeypress": {}, "onkeyup": {},
	"onload": {}, "onmessage": {}, "onmousedown": {}, "onmouseenter": {},
	"onmouseleave": {}, "onmousemove": {}, "onmouseout": {}, "onmouseover": {},
	"onmouseup": {}, "onpaste": {}, "onpointerdown": {}, "onpointerup": {},
	"onreset": {}, "onresize": {}, "onscroll": {}, "onsearch": {},
	"onselect": {}, "onsubmit": {}, "ontoggle": {}, "ontransitionend": {},
	"onunload": {}, "onwheel": {},
}

// urlAttributes carry URLs and are checked for script-capable schemes.
var urlAttributes = map[string]struct{}{
	"href": {}, "src": {}, "action": {}, "data": {}, "poster": {}, "srcset": {},
}

var dangerousSchemes = []string{"javascript:", "vbscript:", "data:text/html"}

var dangerousStyle = []string{"expression(", "javascript:", "vbscript:"}

// Reason explains why an attribute was removed.
type Reason string

const (
	ReasonEventHandler Reason = "event handler attribute"
	ReasonUnsafeURL    Reason = "unsafe URL scheme"
	ReasonUnsafeStyle  Reason = "unsafe style value"
)

// Blocked records one removed attribute.
type Blocked struct {
	Key    string
	Value  string
	Reason Reason
}

// Filter returns attrs without dangerous entries, plus what was removed.
// It never fails, and filtering its own output removes nothing.
func Filter(attrs directive.Attrs) (directive.Attrs, []Blocked) {
	var blocked []Blocked
	out := make(directive.Attrs, 0, len(attrs))
	for _, a := range attrs {
		if reason, bad := check(a.Key, a.Value); bad {
			blocked = append(blocked, Blocked{Key: a.Key, Value: a.Value, Reason: reason})
			continue
		}
		out = append(out, a)
	}
	return out, blocked
}

func check(key, value string) (Reason, bool) {
	k := strings.ToLower(key)
	if _, ok := eventHandlers[k]; ok {
		return ReasonEventHandler, true
	}
	if _, ok := urlAttributes[k]; ok && IsDangerousURL(value) {
		return ReasonUnsafeURL, true
	}
	if k == "style" && IsDangerousStyle(value) {
		return ReasonUnsafeStyle, true
	}
	return "", false
}

// IsDangerousURL reports whether u starts with a script-capable scheme.
func IsDangerousURL(u string) bool {
	v := strings.ToLower(strings.TrimSpace(u))
	for _, scheme := range dangerousSchemes {
		if strings.HasPrefix(v, scheme) {
			return true
		}
	}
	return false
}

// IsDangerousStyle reports whether an inline style can run script.
func IsDangerousStyle(s string) bool {
	v := strings.ToLower(s)
	for _, pattern := range dangerousStyle {
		if strings.Contains(v, pattern) {
			return true
		}
	}
	return false
}
