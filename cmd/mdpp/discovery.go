package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/alnah/go-mdpp/internal/format"
)

// Worker bounds.
const (
	minWorkers = 1
	maxWorkers = 32
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("unsupported file extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds every MD++ file under the inputs. Files given
// explicitly must carry a supported extension; directories are walked and
// other files skipped. A single file input with an output path ending in
// .html writes to that path.
func discoverFiles(inputs []string, output string) ([]FileToConvert, error) {
	var files []FileToConvert
	seen := make(map[string]bool)
	add := func(f FileToConvert) {
		if !seen[f.InputPath] {
			seen[f.InputPath] = true
			files = append(files, f)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if err := validateExtension(input); err != nil {
				return nil, err
			}
			out := resolveOutputPath(input, output, "")
			if len(inputs) > 1 && isHTMLPath(output) {
				out = resolveOutputPath(input, filepath.Dir(output), "")
			}
			add(FileToConvert{InputPath: input, OutputPath: out})
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() {
				if path != input && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !isSupported(path) {
				return nil
			}
			dir := output
			if isHTMLPath(dir) {
				dir = filepath.Dir(dir)
			}
			add(FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, dir, input)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// resolveOutputPath determines the HTML output path for an input file.
// Directory inputs keep their relative layout under outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+".html")
	}

	if isHTMLPath(outputDir) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base+".html")
		}
	}

	return filepath.Join(outputDir, base+".html")
}

func isHTMLPath(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".html")
}

// isSupported reports whether path has an MD++ extension.
func isSupported(path string) bool {
	return slices.Contains(format.Extensions(), strings.ToLower(filepath.Ext(path)))
}

// validateExtension checks that an explicit input is an MD++ file.
func validateExtension(path string) error {
	if !isSupported(path) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidExtension,
			filepath.Ext(path), strings.Join(format.Extensions(), ", "))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > maxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, maxWorkers)
	}
	return nil
}

// resolveWorkers determines the worker count.
// Priority: explicit value > GOMAXPROCS (adjusted by automaxprocs for containers).
func resolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}
	n := runtime.GOMAXPROCS(0)
	if n < minWorkers {
		return minWorkers
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}
