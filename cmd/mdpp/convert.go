package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-mdpp"
	"github.com/alnah/go-mdpp/internal/config"
	"github.com/alnah/go-mdpp/internal/fileutil"
	"github.com/alnah/go-mdpp/internal/hints"
	"github.com/alnah/go-mdpp/internal/security"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage            = errors.New("invalid usage")
	ErrNoInput          = errors.New("no input specified")
	ErrNoFiles          = errors.New("no MD++ files found")
	ErrReadInput        = errors.New("failed to read input file")
	ErrReadPlugin       = errors.New("failed to read plugin manifest")
	ErrWriteOutput      = errors.New("failed to write output file")
	ErrFrontmatter      = errors.New("invalid frontmatter")
	ErrWatch            = errors.New("failed to watch inputs")
	ErrConversionFailed = errors.New("conversion failed")
)

// krokiOff disables diagram rendering when given as the Kroki URL.
const krokiOff = "off"

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	ConvertFull(ctx context.Context, in mdpp.Input) (*mdpp.FullResult, error)
	Standalone(ctx context.Context, res *mdpp.FullResult, opts mdpp.DocumentOptions) (string, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*mdpp.Parser)(nil)

// run dispatches a command and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	cmd, rest := splitCommand(args)

	switch cmd {
	case "version":
		fmt.Fprintf(env.Stdout, "mdpp %s\n", Version)
		return ExitSuccess
	case "help":
		return runHelp(rest, env)
	case "plugins":
		return runPlugins(rest, env)
	}

	flags, positional, err := parseConvertFlags(rest, env)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}
	if flags.common.noColor {
		color.NoColor = true
	}

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, flags))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// splitCommand separates the command name from its arguments. Anything
// that is not a known command starts the default convert command.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "convert", nil
	}
	switch args[0] {
	case "convert", "plugins", "version", "help":
		return args[0], args[1:]
	case "--version":
		return "version", args[1:]
	case "-h", "--help":
		return "help", args[1:]
	}
	return "convert", args
}

// hintFor appends an actionable hint to errors users can fix.
func hintFor(err error, flags *convertFlags) string {
	switch {
	case errors.Is(err, mdpp.ErrPluginNotFound):
		return hints.ForPluginNotFound(mdpp.BuiltinPlugins())
	case errors.Is(err, mdpp.ErrInvalidManifest):
		return hints.ForInvalidManifest()
	case errors.Is(err, mdpp.ErrUnknownFormat):
		return hints.ForUnknownFormat()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(userConfigPaths(flags.common.config))
	case errors.Is(err, ErrWatch):
		return hints.ForWatch()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

// userConfigPaths lists where a named config would be searched.
func userConfigPaths(name string) []string {
	if name == "" || fileutil.IsFilePath(name) {
		return nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, "go-mdpp", name+".yaml")}
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	warnUnknownEnvVars(env)
	envCfg := loadEnvConfig(env)

	// Validate worker count early
	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}

	// Load configuration
	cfg := config.DefaultConfig()
	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		var err error
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	// Environment fills gaps, CLI flags win
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	krokiDisabled := strings.EqualFold(cfg.Render.KrokiURL, krokiOff)
	if krokiDisabled {
		cfg.Render.KrokiURL = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var explicit mdpp.FileFormat
	if cfg.Format != "" {
		f, err := mdpp.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		explicit = f
	}

	logger := newLogger(flags.common.verbose, env)
	defer func() { _ = logger.Sync() }()

	parser, err := buildParser(cfg, krokiDisabled, logger)
	if err != nil {
		return err
	}

	inputs, err := resolveInputs(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputPath := resolveOutputDir(flags.output.path, cfg)

	files, err := discoverFiles(inputs, outputPath)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 && !flags.output.watch {
		return fmt.Errorf("%w in %s", ErrNoFiles, strings.Join(inputs, ", "))
	}

	params := newBatchParams(parser, cfg, explicit)
	results := convertBatch(ctx, params, files, resolveWorkers(workers))
	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)

	if flags.output.watch {
		return runWatch(ctx, inputs, outputPath, params, flags.common, env)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrConversionFailed, failed, len(results))
	}
	return nil
}

// mergeFlags applies CLI flags over config values. CLI flags take precedence.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.output.standalone {
		cfg.Output.Standalone = true
	}
	if flags.output.json {
		cfg.Output.JSON = true
	}

	// Render flags
	if flags.render.format != "" {
		cfg.Format = flags.render.format
	}
	cfg.Disable = append(cfg.Disable, flags.render.disable...)
	if flags.render.suppressErrors {
		cfg.Render.SuppressErrors = true
	}
	if flags.render.showAIContext {
		cfg.Render.ShowAIContext = true
	}
	if flags.render.krokiURL != "" {
		cfg.Render.KrokiURL = flags.render.krokiURL
	}
	if flags.render.highlightStyle != "" {
		cfg.Render.HighlightStyle = flags.render.highlightStyle
	}

	// Plugin flags load after configured plugins
	cfg.Plugins = append(cfg.Plugins, flags.plugin.plugins...)
	if flags.plugin.assetPath != "" {
		cfg.Assets.BasePath = flags.plugin.assetPath
	}

	// Security flags
	if flags.security.profile != "" {
		cfg.Security.Profile = security.Profile(flags.security.profile)
	}
	cfg.Security.AllowedDomains = append(cfg.Security.AllowedDomains, flags.security.allow...)
	cfg.Security.BlockedDomains = append(cfg.Security.BlockedDomains, flags.security.block...)

	// Document flags
	if flags.document.title != "" {
		cfg.Document.Title = flags.document.title
	}
	if flags.document.lang != "" {
		cfg.Document.Lang = flags.document.lang
	}
	if flags.document.style != "" {
		cfg.Document.Style = flags.document.style
	}

	// TOC flags
	if flags.toc.enabled {
		cfg.Document.TOC.Enabled = true
	}
	if flags.toc.title != "" {
		cfg.Document.TOC.Title = flags.toc.title
	}
	if flags.toc.minDepth != 0 {
		cfg.Document.TOC.MinDepth = flags.toc.minDepth
	}
	if flags.toc.maxDepth != 0 {
		cfg.Document.TOC.MaxDepth = flags.toc.maxDepth
	}
}

// newLogger returns a console logger on stderr in verbose mode, a no-op
// logger otherwise.
func newLogger(verbose bool, env *Environment) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(env.Stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// buildParser creates the parser and loads plugins in configured order.
func buildParser(cfg *config.Config, krokiDisabled bool, logger *zap.Logger) (*mdpp.Parser, error) {
	opts := []mdpp.Option{
		mdpp.WithLogger(logger),
		mdpp.WithSecurity(cfg.Security),
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdpp.WithAssetPath(cfg.Assets.BasePath))
	}
	switch {
	case krokiDisabled:
		opts = append(opts, mdpp.WithKrokiURL(""))
	case cfg.Render.KrokiURL != "":
		opts = append(opts, mdpp.WithKrokiURL(cfg.Render.KrokiURL))
	}
	if cfg.Render.HighlightStyle != "" {
		opts = append(opts, mdpp.WithHighlightStyle(cfg.Render.HighlightStyle))
	}

	parser, err := mdpp.NewParser(opts...)
	if err != nil {
		return nil, err
	}
	for _, entry := range cfg.Plugins {
		if err := loadPlugin(parser, entry); err != nil {
			return nil, fmt.Errorf("plugin %q: %w", entry, err)
		}
	}
	return parser, nil
}

// loadPlugin registers a built-in plugin by name or a manifest by path.
func loadPlugin(parser *mdpp.Parser, entry string) error {
	if !isManifestPath(entry) {
		return parser.LoadBuiltinPlugin(entry)
	}

	data, err := os.ReadFile(entry) // #nosec G304 -- manifest path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadPlugin, err)
	}
	switch strings.ToLower(filepath.Ext(entry)) {
	case ".yaml", ".yml":
		_, err = parser.LoadPluginYAML(data)
	default:
		_, err = parser.LoadPlugin(data)
	}
	return err
}

// isManifestPath reports whether a plugin entry names a file rather than
// a built-in plugin.
func isManifestPath(entry string) bool {
	if fileutil.IsFilePath(entry) {
		return true
	}
	switch strings.ToLower(filepath.Ext(entry)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// resolveInputs determines the inputs from args or config.
func resolveInputs(args []string, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if cfg.Input.DefaultDir != "" {
		return []string{cfg.Input.DefaultDir}, nil
	}
	return nil, ErrNoInput
}

// resolveOutputDir determines the output path from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}
