package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"

	"github.com/alnah/go-mdpp/internal/directive"
	"github.com/alnah/go-mdpp/internal/pipeline"
	"github.com/alnah/go-mdpp/internal/security"
)

const defaultScriptLanguage = "javascript"

// Script element data attributes.
const (
	AttrScriptID    = "data-script-id"
	AttrScriptMode  = "data-script-mode"
	AttrScriptLang  = "data-script-lang"
	AttrScriptAsync = "data-script-async"
	AttrScriptCache = "data-script-cache"
	AttrScriptCode  = "data-script-code"
	AttrScriptLine  = "data-script-line"
)

// resolveScript records the verbatim code and leaves an inert element
// carrying it. Nothing is executed.
func (r *resolution) resolveScript(d directive.Node) {
	h := d.Directive()
	attrs := r.filter(h, h.Attrs)

	s := Script{
		Code:     directiveText(d, r.source),
		Mode:     ScriptExecute,
		Language: defaultScriptLanguage,
		Line:     h.Line,
	}
	if strings.Contains(h.Name, "output") {
		s.Mode = ScriptOutput
	}
	if lang, ok := attrs.Get("lang"); ok && lang != "" {
		s.Language = lang
	} else if lang, ok := attrs.Get("language"); ok && lang != "" {
		s.Language = lang
	}
	s.Async = truthy(attrs, "async")
	s.Cache = truthy(attrs, "cache")
	s.ID = r.st.recordID(requestedID(attrs), "script")
	r.st.Scripts = append(r.st.Scripts, s)

	tag := "div"
	if !directive.IsBlock(d) {
		tag = "span"
	}
	b := Built{Tag: tag}
	b.Props.AddClass("mdpp-script", "mdpp-script-"+string(s.Mode))
	b.Props.Set(AttrScriptID, s.ID)
	b.Props.Set(AttrScriptMode, string(s.Mode))
	b.Props.Set(AttrScriptLang, s.Language)
	b.Props.Set(AttrScriptAsync, strconv.FormatBool(s.Async))
	b.Props.Set(AttrScriptCache, strconv.FormatBool(s.Cache))
	b.Props.Set(AttrScriptCode, EncodeURIComponent(s.Code))
	if s.Line > 0 {
		b.Props.Set(AttrScriptLine, strconv.Itoa(s.Line))
	}
	r.replace(d, b, false)
}

// truthy reads a flag attribute: bare, "true", "1" or "yes".
func truthy(attrs directive.Attrs, key string) bool {
	v, ok := attrs.Get(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "true", "1", "yes":
		return true
	}
	return false
}

// requestedID reads an author-supplied id from id="..." or #shorthand.
func requestedID(attrs directive.Attrs) string {
	id := ""
	for _, a := range attrs {
		switch {
		case a.Key == "id":
			id = a.Value
		case strings.HasPrefix(a.Key, "#") && len(a.Key) > 1:
			id = a.Key[1:]
		}
	}
	return strings.TrimSpace(id)
}

// EncodeURIComponent percent-encodes s the way browsers' encodeURIComponent
// does, so client code can reverse it with decodeURIComponent.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// ---------------------------------------------------------------------------
// Styles
// ---------------------------------------------------------------------------

// resolveStyle emits an inline stylesheet. Empty styles are dropped.
func (r *resolution) resolveStyle(d directive.Node) {
	h := d.Directive()
	attrs := r.filter(h, h.Attrs)
	css := directiveText(d, r.source)
	if css == "" {
		remove(d)
		return
	}
	s := Style{
		ID:      r.st.recordID(requestedID(attrs), "style"),
		Type:    StyleInline,
		Content: css,
		Scoped:  truthy(attrs, "scoped"),
	}
	r.st.Styles = append(r.st.Styles, s)

	var b strings.Builder
	b.WriteString(`<style data-style-id="`)
	b.Write(util.EscapeHTML([]byte(s.ID)))
	b.WriteByte('"')
	if s.Scoped {
		b.WriteString(` data-scoped="true"`)
	}
	b.WriteByte('>')
	b.WriteString(pipeline.SanitizeCSS(css))
	b.WriteString("</style>")
	swapRaw(d, b.String())
}

// resolveLink emits a stylesheet link. The URL comes from the content,
// then the url or href attribute.
func (r *resolution) resolveLink(d directive.Node) {
	h := d.Directive()
	attrs := r.filter(h, h.Attrs)

	href := strings.TrimSpace(plainText(d, r.source))
	if href == "" {
		href, _ = attrs.Get("url")
	}
	if href == "" {
		href, _ = attrs.Get("href")
	}
	href = strings.TrimSpace(href)
	if href == "" {
		remove(d)
		return
	}

	cfg := r.st.opts.Security
	if !cfg.TrustsURL(href) {
		if ce := r.st.opts.Logger.Check(cfg.LogLevel(), security.LogMsgURLUntrusted); ce != nil {
			ce.Write(
				zap.String(security.LogFieldDirective, h.Name),
				zap.String(security.LogFieldURL, href),
				zap.Int(security.LogFieldLine, h.Line),
			)
		}
		if cfg.Reports() {
			r.st.report(KindSecurityBlocked, h.Line,
				"Blocked stylesheet link", fmt.Sprintf("URL %q is unsafe or not trusted", href))
		}
		remove(d)
		return
	}

	s := Style{
		ID:      r.st.recordID(requestedID(attrs), "style"),
		Type:    StyleExternal,
		Content: href,
	}
	r.st.Styles = append(r.st.Styles, s)
	swapRaw(d, `<link rel="stylesheet" href="`+string(util.EscapeHTML([]byte(href)))+
		`" data-style-id="`+string(util.EscapeHTML([]byte(s.ID)))+`" />`)
}

func swapRaw(d directive.Node, html string) {
	if directive.IsBlock(d) {
		swap(d, &Raw{HTML: html + "\n"})
		return
	}
	swap(d, &RawInline{HTML: html})
}
