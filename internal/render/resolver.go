package render

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/alnah/go-mdpp/internal/directive"
	"github.com/alnah/go-mdpp/internal/pipeline"
	"github.com/alnah/go-mdpp/internal/registry"
	"github.com/alnah/go-mdpp/internal/security"
)

// ResolverPriority orders the resolver among AST transformers. Diagram
// replacement runs after it.
const ResolverPriority = 100

// stage is the resolution path a directive takes.
type stage int

const (
	stageGeneric stage = iota
	stageCallout
	stagePlaceholder
	stageScript
	stageStyle
	stageLink
	stageAIContext
)

// classify applies the dispatch order: reserved names first, then the
// ai-context component, then generic components.
func classify(d directive.Node) stage {
	name := d.Directive().Name
	_, isText := d.(*directive.TextDirective)
	switch {
	case name == pipeline.CalloutDirective:
		return stageCallout
	case !isText && (name == "ai-generate" || name == "ai_generate"), isText && name == "ai":
		return stagePlaceholder
	case strings.HasPrefix(name, "script"):
		return stageScript
	case name == "style":
		return stageStyle
	case name == "link-css" || name == "linkcss" || name == "css-link":
		return stageLink
	}
	if _, component := directive.SplitName(name); component == "ai-context" {
		return stageAIContext
	}
	return stageGeneric
}

type resolverTransformer struct{}

// NewResolver returns the AST transformer that resolves directives using
// the State carried by the parser context. Without a State it does nothing
// and directives render unresolved.
func NewResolver() parser.ASTTransformer {
	return &resolverTransformer{}
}

func (t *resolverTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	st := StateFrom(pc)
	if st == nil {
		return
	}
	r := &resolution{
		st:     st,
		source: reader.Source(),
		nested: make(map[directive.Node]bool),
	}
	caps := st.opts.Capabilities
	if caps.Variables && len(st.opts.Variables) > 0 {
		r.substituteVariables(doc)
	}
	for _, d := range r.collect(doc) {
		r.resolve(d)
	}
	if caps.Components {
		r.wrapCodeBlocks(doc)
	}
}

// resolution is one Transform call.
type resolution struct {
	st     *State
	source []byte
	nested map[directive.Node]bool // directive has directive descendants
}

func (r *resolution) enabled(s stage) bool {
	caps := r.st.opts.Capabilities
	switch s {
	case stageCallout:
		return caps.Callouts
	case stagePlaceholder:
		return caps.AIPlaceholders
	case stageScript:
		return caps.Scripts
	case stageStyle, stageLink:
		return caps.Styles
	case stageAIContext:
		return caps.AIContext
	default:
		return caps.Components
	}
}

// consumesContent reports whether an enabled stage reads its content as
// text, in which case nested directives are left alone.
func (r *resolution) consumesContent(s stage) bool {
	switch s {
	case stagePlaceholder, stageScript, stageStyle, stageLink:
		return r.enabled(s)
	default:
		return false
	}
}

// collect lists directives children-first and records which ones contain
// other directives.
func (r *resolution) collect(doc ast.Node) []directive.Node {
	var out []directive.Node
	var walk func(ast.Node) bool
	walk = func(n ast.Node) bool {
		d, isDirective := n.(directive.Node)
		found := false
		if !isDirective || !r.consumesContent(classify(d)) {
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if walk(c) {
					found = true
				}
			}
		}
		if isDirective {
			r.nested[d] = found
			out = append(out, d)
			return true
		}
		return found
	}
	walk(doc)
	return out
}

func (r *resolution) resolve(d directive.Node) {
	h := d.Directive()
	if h.SyntaxError != nil {
		r.st.report(KindInvalidSyntax, h.Line,
			fmt.Sprintf("Invalid directive syntax in %s", directive.DisplayName(h.Name)),
			h.SyntaxError.Error())
	}

	s := classify(d)
	if !r.enabled(s) {
		r.st.opts.Logger.Debug(LogMsgDirectiveUnresolved,
			zap.String(LogFieldDirective, h.Name),
			zap.Int(LogFieldLine, h.Line),
		)
		return
	}

	switch s {
	case stageCallout:
		r.resolveCallout(d)
	case stagePlaceholder:
		r.resolvePlaceholder(d)
	case stageScript:
		r.resolveScript(d)
	case stageStyle:
		r.resolveStyle(d)
	case stageLink:
		r.resolveLink(d)
	case stageAIContext:
		r.resolveAIContext(d)
	default:
		r.resolveComponent(d)
	}
}

// filter strips dangerous attributes and reports them per profile.
func (r *resolution) filter(h *directive.Header, attrs directive.Attrs) directive.Attrs {
	kept, blocked := security.Filter(attrs)
	if len(blocked) == 0 {
		return kept
	}
	cfg := r.st.opts.Security
	cfg.LogBlocked(r.st.opts.Logger, h.Name, h.Line, blocked)
	if cfg.Reports() {
		keys := make([]string, len(blocked))
		for i, b := range blocked {
			keys[i] = fmt.Sprintf("%s (%s)", b.Key, b.Reason)
		}
		r.st.report(KindSecurityBlocked, h.Line,
			fmt.Sprintf("Blocked unsafe attributes on %s", directive.DisplayName(h.Name)),
			strings.Join(keys, ", "))
	}
	return kept
}

// resolveComponent is the generic path: look the component up, build the
// element and swap it in.
func (r *resolution) resolveComponent(d directive.Node) {
	h := d.Directive()
	reg := r.st.opts.Registry
	framework, component := directive.SplitName(h.Name)
	display := directive.DisplayName(h.Name)

	var (
		def   *registry.ComponentDefinition
		owner string
	)
	if framework != "" {
		if plugin, ok := reg.Plugin(framework); !ok {
			r.st.report(KindMissingPlugin, h.Line,
				fmt.Sprintf("Plugin %q is not registered", framework),
				fmt.Sprintf("Directive %s needs the %s plugin.", display, framework))
		} else if c, ok := plugin.Components[component]; !ok {
			hint := availableHint(reg.Components(framework))
			r.st.report(KindUnknownComponent, h.Line,
				fmt.Sprintf("Component %q not found in plugin %q. %s", component, framework, hint),
				hint)
		} else {
			def, owner = c, framework
		}
	} else if c, fw, ok := reg.Lookup("", component); ok {
		def, owner = c, fw
	}

	if def != nil && !def.NestingAllowed() && r.nested[d] {
		r.st.report(KindNestingError, h.Line,
			fmt.Sprintf("Component %s does not allow nested directives", display), "")
	}
	r.st.usePlugin(owner)

	attrs := r.filter(h, h.Attrs)
	var defaults directive.Attrs
	if def != nil {
		defaults = r.filter(h, defaultAttrs(def.DefaultAttributes))
	}
	fallback := "div"
	if !directive.IsBlock(d) {
		fallback = "span"
	}
	built := Build(def, defaults, attrs, fallback)
	if def != nil && def.Hidden {
		built.Props.SetBool("hidden")
	}
	if def != nil && def.AIVisible {
		r.st.AIContexts = append(r.st.AIContexts, AIContext{
			Visibility: VisibilityVisible,
			Visible:    true,
			Content:    plainText(d, r.source),
			Metadata:   map[string]string{"component": display},
			Line:       h.Line,
		})
	}

	r.replace(d, built, true)
	r.st.opts.Logger.Debug(LogMsgDirectiveResolved,
		zap.String(LogFieldDirective, h.Name),
		zap.String(LogFieldPlugin, owner),
		zap.Int(LogFieldLine, h.Line),
	)
}

// replace swaps d for the built element, moving d's children inside.
// The graph is rebuilt as wrapper -> element -> original children.
func (r *resolution) replace(d directive.Node, b Built, keepChildren bool) ast.Node {
	var inner, outer ast.Node
	if directive.IsBlock(d) {
		el := NewElement(b.Tag, b.Props)
		inner, outer = el, el
		if b.Wrapper != nil {
			w := NewElement(b.Wrapper.Tag, b.Wrapper.Props)
			w.AppendChild(w, el)
			outer = w
		}
	} else {
		el := NewInlineElement(b.Tag, b.Props)
		inner, outer = el, el
		if b.Wrapper != nil {
			w := NewInlineElement(b.Wrapper.Tag, b.Wrapper.Props)
			w.AppendChild(w, el)
			outer = w
		}
	}
	if keepChildren {
		moveChildren(d, inner)
	}
	swap(d, outer)
	return inner
}

// swap puts replacement where old was.
func swap(old, replacement ast.Node) {
	if parent := old.Parent(); parent != nil {
		parent.ReplaceChild(parent, old, replacement)
	}
}

// remove detaches n from the tree.
func remove(n ast.Node) {
	if parent := n.Parent(); parent != nil {
		parent.RemoveChild(parent, n)
	}
}

// wrapCodeBlocks marks fenced code in a language a plugin claims.
func (r *resolution) wrapCodeBlocks(doc ast.Node) {
	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fc, ok := n.(*ast.FencedCodeBlock); ok && entering {
			blocks = append(blocks, fc)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	for _, fc := range blocks {
		lang := string(fc.Language(r.source))
		if lang == "" {
			continue
		}
		owner, ok := r.st.opts.Registry.LanguageOwner(lang)
		if !ok {
			continue
		}
		r.st.usePlugin(owner)
		wrap := &Element{Tag: "div"}
		wrap.Props.AddClass("mdpp-code-block")
		wrap.Props.Set("data-plugin", owner)
		wrap.Props.Set("data-language", lang)
		swap(fc, wrap)
		wrap.AppendChild(wrap, fc)
	}
}
