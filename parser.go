package mdpp

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/alnah/go-mdpp/internal/assets"
	"github.com/alnah/go-mdpp/internal/directive"
	"github.com/alnah/go-mdpp/internal/format"
	"github.com/alnah/go-mdpp/internal/pipeline"
	"github.com/alnah/go-mdpp/internal/registry"
	"github.com/alnah/go-mdpp/internal/render"
)

// Log messages and fields.
const (
	LogMsgConvertStart = "conversion started"
	LogMsgConvertDone  = "conversion finished"
	LogMsgAssetBlocked = "plugin asset not trusted"
	LogFieldFilename   = "filename"
	LogFieldFormat     = "format"
	LogFieldErrors     = "errors"
	LogFieldPlugins    = "plugins"
	LogFieldDuration   = "duration"
	LogFieldURL        = "url"
)

// parserConfig holds the option values applied at construction.
type parserConfig struct {
	security       SecurityConfig
	plugins        []*PluginDefinition
	builtins       []string
	assetPath      string
	krokiURL       string
	krokiSet       bool
	highlightStyle string
}

// Parser converts MD++ documents. Create with NewParser. A Parser is safe
// for concurrent use; every conversion gets its own state.
type Parser struct {
	cfg      parserConfig
	logger   *zap.Logger
	registry *registry.Registry
	assets   assets.AssetLoader
	banners  *render.BannerRenderer
	document *pipeline.DocumentWrapper
	highCSS  string

	mu      sync.Mutex
	engines map[pipeline.EngineOptions]goldmark.Markdown
}

// NewParser creates a Parser. It fails when the asset path, a plugin,
// the security configuration, the Kroki URL, the highlight style or the
// built-in templates are invalid.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{
		cfg:     parserConfig{security: DefaultSecurityConfig()},
		logger:  zap.NewNop(),
		assets:  assets.NewEmbeddedLoader(),
		engines: make(map[pipeline.EngineOptions]goldmark.Markdown),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.registry = registry.New(p.logger)

	if err := p.cfg.security.Validate(); err != nil {
		return nil, err
	}
	if err := p.resolveKrokiURL(); err != nil {
		return nil, err
	}

	if p.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(p.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		p.assets = resolver
	}

	if err := p.loadTemplates(); err != nil {
		return nil, err
	}

	css, err := pipeline.HighlightCSS(p.cfg.highlightStyle)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHighlight, p.cfg.highlightStyle)
	}
	p.highCSS = css

	for _, name := range p.cfg.builtins {
		if err := p.LoadBuiltinPlugin(name); err != nil {
			return nil, err
		}
	}
	for _, def := range p.cfg.plugins {
		if err := p.RegisterPlugin(def); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Parser) resolveKrokiURL() error {
	if !p.cfg.krokiSet {
		p.cfg.krokiURL = pipeline.DefaultKrokiURL
		return nil
	}
	if p.cfg.krokiURL == "" {
		return nil
	}
	u, err := url.Parse(p.cfg.krokiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKrokiURL, p.cfg.krokiURL)
	}
	p.cfg.krokiURL = strings.TrimRight(p.cfg.krokiURL, "/")
	return nil
}

// loadTemplates parses the banner and document templates.
func (p *Parser) loadTemplates() error {
	alert, err := p.assets.LoadTemplate(assets.AlertTemplateName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	if p.banners, err = render.NewBannerRenderer(alert); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}

	doc, err := p.assets.LoadTemplate(assets.DocumentTemplateName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	if p.document, err = pipeline.NewDocumentWrapper(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	return nil
}

// engine returns the shared goldmark instance for caps, building it once.
func (p *Parser) engine(caps Capabilities) goldmark.Markdown {
	key := pipeline.EngineOptions{
		GFM:      caps.GFM,
		Math:     caps.Math,
		Diagrams: caps.Mermaid,
		KrokiURL: p.cfg.krokiURL,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if md, ok := p.engines[key]; ok {
		return md
	}
	md := pipeline.NewMarkdown(key, directive.Extension, render.Extension)
	p.engines[key] = md
	return md
}

// Convert renders in and returns the HTML, AI context blocks, frontmatter
// and render errors. Document problems never fail the call; they are
// reported in Result.Errors. An error is returned only on cancellation or
// an internal failure.
func (p *Parser) Convert(ctx context.Context, in Input) (*Result, error) {
	full, err := p.ConvertFull(ctx, in)
	if err != nil {
		return nil, err
	}
	return &full.Result, nil
}

// ConvertFull is Convert plus scripts, placeholders, styles, the resolved
// format and the trusted assets of the plugins the document used.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (p *Parser) ConvertFull(ctx context.Context, in Input) (result *FullResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	f := format.Resolve(in.Format, in.Filename)
	caps := format.Effective(f, in.Features)
	p.logger.Debug(LogMsgConvertStart,
		zap.String(LogFieldFilename, in.Filename),
		zap.String(LogFieldFormat, string(f)),
	)

	pre := (&pipeline.Preprocessor{Callouts: caps.Callouts}).Preprocess(ctx, in.Markdown)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := render.NewState(render.Options{
		Capabilities:  caps,
		Registry:      p.registry,
		Security:      p.cfg.security,
		Logger:        p.logger,
		Variables:     in.variables(),
		ShowAIContext: in.ShowAIContext,
	})

	html, err := pipeline.Render(ctx, p.engine(caps), []byte(pre), render.NewContext(st))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	html, err = pipeline.RewriteRelativePaths(html, in.SourceDir, in.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("rewriting relative paths: %w", err)
	}

	if !in.SuppressErrors {
		banners, err := p.banners.Render(st.Errors)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		html = banners + html
	}

	used := st.UsedPlugins()
	result = &FullResult{
		Result: Result{
			HTML:        html,
			AIContexts:  orEmpty(st.AIContexts),
			Frontmatter: in.Frontmatter,
			Errors:      orEmpty(st.Errors),
		},
		Scripts:      orEmpty(st.Scripts),
		Placeholders: orEmpty(st.Placeholders),
		Styles:       orEmpty(st.Styles),
		Format:       f,
		Capabilities: caps,
		Assets:       p.pluginAssets(used),
	}

	p.logger.Debug(LogMsgConvertDone,
		zap.String(LogFieldFilename, in.Filename),
		zap.Int(LogFieldErrors, len(st.Errors)),
		zap.Strings(LogFieldPlugins, used),
		zap.Duration(LogFieldDuration, time.Since(start)),
	)
	return result, nil
}

// pluginAssets collects the trusted CSS and JS URLs of frameworks, in
// first-use order without duplicates.
func (p *Parser) pluginAssets(frameworks []string) Assets {
	out := Assets{CSS: []string{}, JS: []string{}}
	for _, name := range frameworks {
		def, ok := p.registry.Plugin(name)
		if !ok {
			continue
		}
		out.CSS = p.appendTrusted(out.CSS, def.CSS)
		out.JS = p.appendTrusted(out.JS, def.JS)
	}
	return out
}

func (p *Parser) appendTrusted(dst, urls []string) []string {
	for _, u := range urls {
		if !p.cfg.security.TrustsURL(u) {
			p.logger.Log(p.cfg.security.LogLevel(), LogMsgAssetBlocked, zap.String(LogFieldURL, u))
			continue
		}
		if !slices.Contains(dst, u) {
			dst = append(dst, u)
		}
	}
	return dst
}

// Standalone wraps a conversion result into a complete HTML document with
// the plugin asset links, the named stylesheet, the highlight stylesheet
// and an optional table of contents.
func (p *Parser) Standalone(ctx context.Context, res *FullResult, opts DocumentOptions) (string, error) {
	if res == nil {
		return "", ErrNilResult
	}
	if err := validateTOC(opts.TOC); err != nil {
		return "", err
	}

	styleName := opts.Style
	if styleName == "" {
		styleName = assets.DefaultStyleName
	}
	css, err := p.assets.LoadStyle(styleName)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return "", fmt.Errorf("%w: %q", ErrStyleNotFound, styleName)
		}
		return "", err
	}

	doc, err := p.document.Wrap(ctx, &pipeline.DocumentData{
		Title:       opts.Title,
		Lang:        opts.Lang,
		Stylesheets: res.Assets.CSS,
		Scripts:     res.Assets.JS,
		TOC:         opts.TOC != nil,
		Body:        template.HTML(res.HTML), // #nosec G203 -- rendered without raw HTML passthrough
	})
	if err != nil {
		return "", err
	}

	doc = pipeline.InjectCSS(ctx, doc, css+"\n"+p.highCSS)

	if opts.TOC == nil {
		return doc, nil
	}
	return pipeline.InjectTOC(ctx, doc, &pipeline.TOCOptions{
		Title:    opts.TOC.Title,
		MinDepth: opts.TOC.MinDepth,
		MaxDepth: opts.TOC.MaxDepth,
	})
}

func validateTOC(toc *TOCOptions) error {
	if toc == nil {
		return nil
	}
	lo, hi := toc.MinDepth, toc.MaxDepth
	if lo == 0 {
		lo = 2
	}
	if hi == 0 {
		hi = 3
	}
	if lo < 1 || hi > 6 || lo > hi {
		return fmt.Errorf("%w: min %d, max %d (must be 1-6 with min <= max)", ErrInvalidTOCDepth, lo, hi)
	}
	return nil
}

// orEmpty keeps JSON output stable: empty lists encode as [] not null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
