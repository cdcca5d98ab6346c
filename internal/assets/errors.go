package assets

import "errors"

// Lookup errors. A missing asset of each kind has its own sentinel so
// callers can tell a bad --style from a bad --plugin.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrPluginNotFound   = errors.New("plugin not found")
)

// Filesystem errors for custom asset directories.
var (
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid base path")
	ErrAssetRead        = errors.New("failed to read asset")
	ErrAssetTooLarge    = errors.New("asset exceeds maximum size")
	ErrPathTraversal    = errors.New("path traversal detected")
)
