// Package assets provides the stylesheets, HTML templates and plugin
// manifests used by the MD++ converter.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the base stylesheet, the error banner and
// document templates, and the bootstrap and tailwind plugin manifests.
//
// FilesystemLoader allows users to provide custom assets from a directory,
// with path traversal protection and symlink resolution.
//
// AssetResolver is the loader used by the converter. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the asset is
// not found. A custom plugin manifest that fails validation does not fall
// back.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # CSS styles (e.g., mdpp.css)
//	├── templates/
//	│   ├── alert.html           # Error banner template
//	│   └── document.html        # Standalone page template
//	└── plugins/
//	    └── {name}.json|yaml|yml # Plugin manifests
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
