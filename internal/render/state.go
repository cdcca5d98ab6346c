package render

import (
	"fmt"
	"slices"

	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"

	"github.com/alnah/go-mdpp/internal/format"
	"github.com/alnah/go-mdpp/internal/placeholder"
	"github.com/alnah/go-mdpp/internal/registry"
	"github.com/alnah/go-mdpp/internal/security"
)

// Log messages and fields.
const (
	LogMsgDirectiveResolved   = "directive resolved"
	LogMsgDirectiveUnresolved = "directive left unresolved"
	LogMsgRenderError         = "render error recorded"
	LogFieldDirective         = "directive"
	LogFieldKind              = "kind"
	LogFieldLine              = "line"
	LogFieldPlugin            = "plugin"
)

// Visibility of an AI context block.
type Visibility string

const (
	VisibilityVisible    Visibility = "visible"
	VisibilityHidden     Visibility = "hidden"
	VisibilityHTMLHidden Visibility = "html-hidden"
)

func parseVisibility(s string) (Visibility, bool) {
	switch v := Visibility(s); v {
	case VisibilityVisible, VisibilityHidden, VisibilityHTMLHidden:
		return v, true
	}
	return "", false
}

// AIContext is content addressed to AI agents.
type AIContext struct {
	Visibility Visibility        `json:"visibility"`
	Visible    bool              `json:"visible"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Line       int               `json:"line,omitempty"`
}

// ScriptMode says whether a script runs for effect or produces output.
type ScriptMode string

const (
	ScriptExecute ScriptMode = "execute"
	ScriptOutput  ScriptMode = "output"
)

// Script is an embedded script block.
type Script struct {
	ID       string     `json:"id"`
	Code     string     `json:"code"`
	Mode     ScriptMode `json:"mode"`
	Language string     `json:"language"`
	Async    bool       `json:"async"`
	Cache    bool       `json:"cache"`
	Line     int        `json:"line,omitempty"`
}

// StyleType distinguishes inline CSS from stylesheet links.
type StyleType string

const (
	StyleInline   StyleType = "inline"
	StyleExternal StyleType = "external"
)

// Style is an inline stylesheet or a stylesheet link.
type Style struct {
	ID      string    `json:"id"`
	Type    StyleType `json:"type"`
	Content string    `json:"content"`
	Scoped  bool      `json:"scoped,omitempty"`
}

// Options configure one conversion.
type Options struct {
	Capabilities  format.Capabilities
	Registry      *registry.Registry
	Security      security.Config
	Logger        *zap.Logger
	Variables     map[string]any
	ShowAIContext bool
}

// State is the per-conversion accumulator. It travels through goldmark in
// the parser.Context and is never shared between conversions.
type State struct {
	opts Options

	Errors       []RenderError
	AIContexts   []AIContext
	Placeholders []placeholder.Placeholder
	Scripts      []Script
	Styles       []Style

	plugins  []string
	ids      map[string]struct{}
	counters map[string]int
}

// NewState returns an empty State. A nil registry or logger is replaced
// by an empty registry and a no-op logger.
func NewState(opts Options) *State {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = registry.New(opts.Logger)
	}
	return &State{
		opts:     opts,
		ids:      make(map[string]struct{}),
		counters: make(map[string]int),
	}
}

// UsedPlugins returns the frameworks whose components or code languages
// appeared in the document, in first-use order.
func (s *State) UsedPlugins() []string {
	return slices.Clone(s.plugins)
}

func (s *State) usePlugin(framework string) {
	if framework != "" && !slices.Contains(s.plugins, framework) {
		s.plugins = append(s.plugins, framework)
	}
}

// claimID reserves id, appending -2, -3... until it is unused.
func (s *State) claimID(id string) string {
	candidate := id
	for n := 2; ; n++ {
		if _, taken := s.ids[candidate]; !taken {
			s.ids[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
}

// nextID generates "<prefix>-<n>" ids from a per-prefix counter.
func (s *State) nextID(prefix string) string {
	for {
		s.counters[prefix]++
		id := fmt.Sprintf("%s-%d", prefix, s.counters[prefix])
		if _, taken := s.ids[id]; !taken {
			s.ids[id] = struct{}{}
			return id
		}
	}
}

// recordID returns a unique id: the requested one when given, else a
// generated one.
func (s *State) recordID(requested, prefix string) string {
	if requested != "" {
		return s.claimID(requested)
	}
	return s.nextID(prefix)
}

var stateKey = parser.NewContextKey()

// NewContext returns a parser.Context carrying st.
func NewContext(st *State) parser.Context {
	pc := parser.NewContext()
	pc.Set(stateKey, st)
	return pc
}

// StateFrom returns the State stored in pc, or nil.
func StateFrom(pc parser.Context) *State {
	if pc == nil {
		return nil
	}
	st, _ := pc.Get(stateKey).(*State)
	return st
}
