package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpp [convert] [flags] <file|dir>...")
	fmt.Fprintln(w, "       mdpp <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert MD++ files to HTML (default)")
	fmt.Fprintln(w, "  plugins    List built-in plugins and their components")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdpp help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpp convert <file|dir>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert .md, .markdown, .mdp, .mdplus, .mdpp and .mdsc files to HTML.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --standalone            Write complete HTML documents")
	fmt.Fprintln(w, "      --json                  Write side-channel records to a .json file")
	fmt.Fprintln(w, "      --watch                 Convert again when inputs change")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -f, --format <s>            md, mdplus, mdsc (default: from extension)")
	fmt.Fprintln(w, "      --disable <list>        Features to turn off: gfm, math, mermaid,")
	fmt.Fprintln(w, "                              components, callouts, aiContext,")
	fmt.Fprintln(w, "                              aiPlaceholders, scripts, styles, variables")
	fmt.Fprintln(w, "      --suppress-errors       Omit error banners from HTML")
	fmt.Fprintln(w, "      --show-ai-context       Show hidden AI context blocks")
	fmt.Fprintln(w, "      --kroki-url <url>       Kroki server (\"off\" disables)")
	fmt.Fprintln(w, "      --highlight-style <s>   Chroma style for code blocks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Plugins:")
	fmt.Fprintln(w, "  -p, --plugin <name|path>    Built-in plugin or manifest (repeatable)")
	fmt.Fprintln(w, "      --asset-path <dir>      Custom styles/, templates/ and plugins/")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Security:")
	fmt.Fprintln(w, "      --security <profile>    strict, warn, expert, custom")
	fmt.Fprintln(w, "      --allow-domain <host>   Trusted asset domain (repeatable)")
	fmt.Fprintln(w, "      --block-domain <host>   Blocked asset domain (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Standalone documents:")
	fmt.Fprintln(w, "      --title <s>             Title (default: frontmatter, then filename)")
	fmt.Fprintln(w, "      --lang <s>              Language (default: en)")
	fmt.Fprintln(w, "      --style <name>          Stylesheet (default: mdpp)")
	fmt.Fprintln(w, "      --toc                   Add a table of contents")
	fmt.Fprintln(w, "      --toc-title <s>         TOC heading text")
	fmt.Fprintln(w, "      --toc-min-depth <n>     Min heading depth (1-6)")
	fmt.Fprintln(w, "      --toc-max-depth <n>     Max heading depth (1-6)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Show timing and debug logs")
	fmt.Fprintln(w, "      --no-color              Disable colored output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDPP_CONFIG, MDPP_FORMAT, MDPP_INPUT_DIR, MDPP_OUTPUT_DIR,")
	fmt.Fprintln(w, "  MDPP_ASSET_PATH, MDPP_SECURITY, MDPP_KROKI_URL, MDPP_WORKERS")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "plugins":
		fmt.Fprintln(env.Stdout, "Usage: mdpp plugins [--asset-path <dir>]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List built-in plugins and their components.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdpp version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdpp help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
