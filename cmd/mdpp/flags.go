package main

import (
	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
	noColor bool
}

// outputFlags holds output destination and mode flags.
type outputFlags struct {
	path       string
	standalone bool
	json       bool
	watch      bool
}

// renderFlags holds conversion flags.
type renderFlags struct {
	format         string
	disable        []string
	suppressErrors bool
	showAIContext  bool
	krokiURL       string
	highlightStyle string
}

// pluginFlags holds plugin and asset flags.
type pluginFlags struct {
	plugins   []string
	assetPath string
}

// securityFlags holds security flags.
type securityFlags struct {
	profile string
	allow   []string
	block   []string
}

// documentFlags holds standalone page flags.
type documentFlags struct {
	title string
	lang  string
	style string
}

// tocFlags holds table of contents flags.
type tocFlags struct {
	enabled  bool
	title    string
	minDepth int
	maxDepth int
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	output   outputFlags
	workers  int
	render   renderFlags
	plugin   pluginFlags
	security securityFlags
	document documentFlags
	toc      tocFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show timing and debug logs")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.path, "output", "o", "", "output file or directory")
	fs.BoolVar(&f.standalone, "standalone", false, "write complete HTML documents")
	fs.BoolVar(&f.json, "json", false, "write side-channel records to a .json file")
	fs.BoolVar(&f.watch, "watch", false, "convert again when inputs change")
}

// addRenderFlags adds conversion flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.format, "format", "f", "", "format: md, mdplus, mdsc (default: from extension)")
	fs.StringSliceVar(&f.disable, "disable", nil, "features to turn off (e.g. scripts,styles)")
	fs.BoolVar(&f.suppressErrors, "suppress-errors", false, "omit error banners from HTML")
	fs.BoolVar(&f.showAIContext, "show-ai-context", false, "show hidden AI context blocks")
	fs.StringVar(&f.krokiURL, "kroki-url", "", "Kroki server for diagrams (\"off\" disables)")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "chroma style for code (default: github)")
}

// addPluginFlags adds plugin flags to a FlagSet.
func addPluginFlags(fs *flag.FlagSet, f *pluginFlags) {
	fs.StringSliceVarP(&f.plugins, "plugin", "p", nil, "built-in plugin name or manifest path (repeatable)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// addSecurityFlags adds security flags to a FlagSet.
func addSecurityFlags(fs *flag.FlagSet, f *securityFlags) {
	fs.StringVar(&f.profile, "security", "", "profile: strict, warn, expert, custom")
	fs.StringSliceVar(&f.allow, "allow-domain", nil, "trusted asset domain (repeatable)")
	fs.StringSliceVar(&f.block, "block-domain", nil, "blocked asset domain (repeatable)")
}

// addDocumentFlags adds standalone document flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title (default: frontmatter title, then filename)")
	fs.StringVar(&f.lang, "lang", "", "document language (default: en)")
	fs.StringVar(&f.style, "style", "", "stylesheet name (default: mdpp)")
}

// addTOCFlags adds TOC flags to a FlagSet.
func addTOCFlags(fs *flag.FlagSet, f *tocFlags) {
	fs.BoolVar(&f.enabled, "toc", false, "add a table of contents to standalone documents")
	fs.StringVar(&f.title, "toc-title", "", "table of contents heading")
	fs.IntVar(&f.minDepth, "toc-min-depth", 0, "min heading depth for TOC (1-6, default: 2)")
	fs.IntVar(&f.maxDepth, "toc-max-depth", 0, "max heading depth for TOC (1-6, default: 3)")
}

// newConvertFlagSet registers every convert flag on a new FlagSet.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")

	addCommonFlags(fs, &f.common)
	addOutputFlags(fs, &f.output)
	addRenderFlags(fs, &f.render)
	addPluginFlags(fs, &f.plugin)
	addSecurityFlags(fs, &f.security)
	addDocumentFlags(fs, &f.document)
	addTOCFlags(fs, &f.toc)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, env *Environment) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printConvertUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
