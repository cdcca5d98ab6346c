package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdpp"
)

// runPlugins lists the built-in plugins and their components. An asset
// path may override the embedded manifests.
func runPlugins(args []string, env *Environment) int {
	var assetPath string
	var noColor bool
	fs := flag.NewFlagSet("plugins", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	fs.StringVar(&assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&noColor, "no-color", false, "disable colored output")
	fs.Usage = func() { fmt.Fprintln(env.Stderr, "Usage: mdpp plugins [--asset-path <dir>]") }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}
	if noColor {
		color.NoColor = true
	}

	var opts []mdpp.Option
	if assetPath != "" {
		opts = append(opts, mdpp.WithAssetPath(assetPath))
	}
	parser, err := mdpp.NewParser(opts...)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	for _, name := range mdpp.BuiltinPlugins() {
		if err := parser.LoadBuiltinPlugin(name); err != nil {
			fmt.Fprintf(env.Stderr, "error: plugin %q: %v\n", name, err)
			return exitCodeFor(err)
		}
	}

	bold := color.New(color.Bold)
	for _, fw := range parser.Frameworks() {
		bold.Fprintln(env.Stdout, fw)
		fmt.Fprintf(env.Stdout, "  %s\n", strings.Join(parser.Components(fw), ", "))
	}
	return ExitSuccess
}
