// Package mdpp converts MD++ documents to HTML.
//
// MD++ is Markdown extended with directives (:name, ::name, :::name),
// framework components, callouts, AI context blocks, AI-generation
// placeholders and, in .mdsc documents, scripts, styles and variables.
//
// # Quick Start
//
//	p, err := mdpp.NewParser(mdpp.WithBuiltinPlugins("bootstrap"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := p.Convert(ctx, mdpp.Input{
//	    Markdown: ":::bootstrap:alert{variant=success}\nSaved.\n:::",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.HTML)
//
// Document problems (unknown components, blocked attributes, bad syntax)
// never fail a conversion. They are returned in Result.Errors and, unless
// Input.SuppressErrors is set, rendered as alert banners above the HTML.
//
// # Conversion Pipeline
//
//  1. Format resolution (explicit, else by extension, else mdplus)
//  2. Text preprocessing (line endings, framework:component names, callouts)
//  3. Markdown to AST via goldmark with the directive grammar
//  4. Directive resolution against the component registry, with
//     attribute filtering and side-channel extraction
//  5. HTML rendering, relative path rewriting, error banners
//
// # Formats
//
// The format decides which stages run:
//
//	md      GFM, math, diagrams, AI context
//	mdplus  adds components, callouts, AI placeholders
//	mdsc    adds scripts, styles, variables
//
// Input.Features switches stages off further; it never enables a stage
// the format forbids.
//
// # Plugins
//
// Components come from plugin definitions registered on the parser:
//
//	p.RegisterPlugin(&mdpp.PluginDefinition{...})
//	p.LoadPlugin(jsonManifest)
//	p.LoadPluginYAML(yamlManifest)
//	p.LoadBuiltinPlugin("tailwind")
//
// WithAssetPath points to a directory whose plugins/, styles/ and
// templates/ override the embedded ones.
//
// # Placeholders
//
// AI placeholders are rendered with data-ai-* attributes so a downstream
// generator can find them with ExtractPlaceholders and fill them with
// ReplacePlaceholder.
//
// # Concurrency
//
// A Parser is safe for concurrent use. Its registry is shared; everything
// collected during a conversion belongs to that conversion.
package mdpp
