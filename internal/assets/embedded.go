package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/alnah/go-mdpp/internal/registry"
)

//go:embed styles/* templates/* plugins/*
var embedded embed.FS

// EmbeddedLoader loads the assets compiled into the module.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle returns the stylesheet named name, without its .css extension.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	content, _, err := e.read(KindStyle, name)
	return string(content), err
}

// LoadTemplate returns the template named name, without its .html extension.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	content, _, err := e.read(KindTemplate, name)
	return string(content), err
}

// LoadPlugin decodes the built-in manifest named name.
func (e *EmbeddedLoader) LoadPlugin(name string) (*registry.PluginDefinition, error) {
	content, ext, err := e.read(KindPlugin, name)
	if err != nil {
		return nil, err
	}
	return parsePlugin(ext, content)
}

// read finds the first file of kind k named name and returns it with the
// extension that matched.
func (e *EmbeddedLoader) read(k Kind, name string) ([]byte, string, error) {
	if err := ValidateAssetName(k, name); err != nil {
		return nil, "", err
	}
	for _, ext := range k.extensions() {
		content, err := embedded.ReadFile(path.Join(string(k), name+ext))
		if err == nil {
			return content, ext, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %q", k.notFound(), name)
}

// Plugins returns the sorted names of the embedded plugin manifests.
func (e *EmbeddedLoader) Plugins() []string {
	entries, err := fs.ReadDir(embedded, string(KindPlugin))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || !slices.Contains(KindPlugin.extensions(), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ext))
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// parsePlugin decodes a manifest according to its file extension.
func parsePlugin(ext string, content []byte) (*registry.PluginDefinition, error) {
	if ext == ".json" {
		return registry.ParseManifest(content)
	}
	return registry.ParseManifestYAML(content)
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
