package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/alnah/go-mdpp"
	"github.com/alnah/go-mdpp/internal/config"
	"github.com/alnah/go-mdpp/internal/fileutil"
	"github.com/alnah/go-mdpp/internal/yamlutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// batchParams groups what every file conversion shares.
type batchParams struct {
	conv       CLIConverter
	format     mdpp.FileFormat
	features   mdpp.Features
	variables  map[string]any
	render     config.RenderConfig
	document   config.DocumentConfig
	standalone bool
	json       bool
}

func newBatchParams(conv CLIConverter, cfg *config.Config, format mdpp.FileFormat) *batchParams {
	return &batchParams{
		conv:       conv,
		format:     format,
		features:   cfg.Features(),
		variables:  cfg.Variables,
		render:     cfg.Render,
		document:   cfg.Document,
		standalone: cfg.Output.Standalone,
		json:       cfg.Output.JSON,
	}
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Warnings   int // render errors reported in the document
	Err        error
	Duration   time.Duration
}

// rendered is a converted file not yet written.
type rendered struct {
	html     []byte
	json     []byte // nil unless side-channel output is enabled
	warnings int
}

// convertBatch processes files concurrently. One parser serves every
// worker since conversions share no mutable state.
func convertBatch(ctx context.Context, p *batchParams, files []FileToConvert, workers int) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(workers, len(files))
	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, p, files[idx])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile renders and writes a single file.
func convertFile(ctx context.Context, p *batchParams, f FileToConvert) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	out, err := renderFile(ctx, p, f)
	if err == nil {
		result.Warnings = out.warnings
		err = writeOutputs(f, out)
	}
	result.Err = err
	result.Duration = time.Since(start)
	return result
}

// renderFile reads and converts a file without touching the output.
func renderFile(ctx context.Context, p *batchParams, f FileToConvert) (*rendered, error) {
	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	fm, body, err := yamlutil.SplitFrontmatter(content)
	if err != nil && !errors.Is(err, yamlutil.ErrFrontmatterUnclosed) {
		return nil, fmt.Errorf("%w: %v", ErrFrontmatter, err)
	}

	features := p.features
	full, err := p.conv.ConvertFull(ctx, mdpp.Input{
		Markdown:       string(body),
		Filename:       f.InputPath,
		Format:         p.format,
		Features:       &features,
		Frontmatter:    fm,
		Variables:      mergeVariables(p.variables, fm),
		ShowAIContext:  p.render.ShowAIContext,
		SuppressErrors: p.render.SuppressErrors,
		SourceDir:      filepath.Dir(f.InputPath),
		OutputDir:      filepath.Dir(f.OutputPath),
	})
	if err != nil {
		return nil, err
	}

	out := &rendered{html: []byte(full.HTML), warnings: len(full.Errors)}
	if p.standalone {
		doc, err := p.conv.Standalone(ctx, full, documentOptions(p.document, fm, f.InputPath))
		if err != nil {
			return nil, err
		}
		out.html = []byte(doc)
	}
	if p.json {
		data, err := json.MarshalIndent(full, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding side-channel records: %w", err)
		}
		out.json = append(data, '\n')
	}
	return out, nil
}

// writeOutputs writes the HTML and the optional side-channel file.
// Each file is replaced atomically so readers never see partial output.
func writeOutputs(f FileToConvert, out *rendered) error {
	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", ErrWriteOutput, err)
	}
	if err := fileutil.WriteFileAtomic(f.OutputPath, out.html, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if out.json != nil {
		path := fileutil.ReplaceExt(f.OutputPath, ".json")
		if err := fileutil.WriteFileAtomic(path, out.json, filePermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}
	return nil
}

// mergeVariables overlays the frontmatter variables map on the configured
// variables. It returns nil when neither defines any.
func mergeVariables(base map[string]any, fm map[string]any) map[string]any {
	fromDoc, _ := fm["variables"].(map[string]any)
	if len(base) == 0 && len(fromDoc) == 0 {
		return nil
	}
	vars := make(map[string]any, len(base)+len(fromDoc))
	for k, v := range base {
		vars[k] = v
	}
	for k, v := range fromDoc {
		vars[k] = v
	}
	return vars
}

// documentOptions builds standalone options. The title comes from config,
// then the frontmatter title, then the file name.
func documentOptions(doc config.DocumentConfig, fm map[string]any, inputPath string) mdpp.DocumentOptions {
	title := doc.Title
	if title == "" {
		if t, ok := fm["title"].(string); ok {
			title = strings.TrimSpace(t)
		}
	}
	if title == "" {
		base := filepath.Base(inputPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	opts := mdpp.DocumentOptions{
		Title: title,
		Lang:  doc.Lang,
		Style: doc.Style,
	}
	if doc.TOC.Enabled {
		opts.TOC = &mdpp.TOCOptions{
			Title:    doc.TOC.Title,
			MinDepth: doc.TOC.MinDepth,
			MaxDepth: doc.TOC.MaxDepth,
		}
	}
	return opts
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
	Warnings  int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.Warnings += r.Warnings
	}
	return summary
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	for _, r := range results {
		if r.Err != nil {
			red.Fprint(env.Stderr, "FAILED")
			fmt.Fprintf(env.Stderr, " %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			green.Fprint(env.Stdout, "Created")
			fmt.Fprintf(env.Stdout, " %s", r.OutputPath)
		}
		if r.Warnings > 0 {
			yellow.Fprintf(env.Stdout, " (%d %s)", r.Warnings, plural(r.Warnings, "warning"))
		}
		fmt.Fprintln(env.Stdout)
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed", summary.Succeeded, summary.Failed)
		if summary.Warnings > 0 {
			fmt.Fprintf(env.Stdout, ", %d %s", summary.Warnings, plural(summary.Warnings, "warning"))
		}
		fmt.Fprintln(env.Stdout)
	}

	return summary.Failed
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
