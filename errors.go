package mdpp

import (
	"errors"

	"github.com/alnah/go-mdpp/internal/assets"
	"github.com/alnah/go-mdpp/internal/format"
	"github.com/alnah/go-mdpp/internal/placeholder"
	"github.com/alnah/go-mdpp/internal/registry"
	"github.com/alnah/go-mdpp/internal/security"
)

// Sentinel errors for library operations.
var (
	ErrInternal             = errors.New("internal conversion error")
	ErrInvalidAssetPath     = errors.New("invalid asset path")
	ErrUnknownHighlight     = errors.New("unknown highlight style")
	ErrInvalidKrokiURL      = errors.New("invalid Kroki URL")
	ErrTemplateLoad         = errors.New("failed to load template")
	ErrNilResult            = errors.New("result cannot be nil")
	ErrInvalidTOCDepth      = errors.New("invalid TOC depth")
	ErrInvalidManifest      = registry.ErrInvalidManifest
	ErrPluginNotFound       = assets.ErrPluginNotFound
	ErrStyleNotFound        = assets.ErrStyleNotFound
	ErrUnknownFormat        = format.ErrUnknownFormat
	ErrInvalidProfile       = security.ErrInvalidProfile
	ErrPlaceholderNotFound  = placeholder.ErrNotFound
	ErrInvalidReplaceStatus = placeholder.ErrInvalidStatus
)
