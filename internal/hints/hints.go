// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mdpp/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForWatch returns hints for watch mode startup errors.
// File events from bind mounts often never reach containers, and CI
// runners cap inotify instances.
func ForWatch() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if IsInContainer() {
		hints = append(hints, "file events from bind mounts may not reach the container; run --watch on the host")
	}
	if inCI {
		hints = append(hints, "--watch is meant for interactive use; drop it in CI")
	}
	hints = append(hints, "raise fs.inotify.max_user_watches if the limit is reached")

	return formatHints(hints)
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mdpp/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path (contains .config/go-mdpp) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-mdpp") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForPluginNotFound returns hints for unknown plugin names.
func ForPluginNotFound(available []string) string {
	if len(available) == 0 {
		return format("pass a manifest path such as ./plugins/acme.json")
	}
	return format("built-in: " + strings.Join(available, ", ") + "; or pass a manifest path")
}

// ForInvalidManifest returns hints for plugin manifest validation errors.
func ForInvalidManifest() string {
	return format("a manifest needs a framework name and a components map")
}

// ForUnknownFormat returns hints for invalid --format values.
func ForUnknownFormat() string {
	return format("use md, mdplus, or mdsc; omit --format to detect from the extension")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
