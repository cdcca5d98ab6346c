package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdpp"
	"github.com/alnah/go-mdpp/internal/config"
)

// Exit codes for the mdpp CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error, failed conversions
	ExitUsage   = 2 // Invalid flags, config, plugin manifest or validation
	ExitIO      = 3 // File not found, permission denied, write failure
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdpp.ErrUnknownFormat) ||
		errors.Is(err, mdpp.ErrInvalidProfile) ||
		errors.Is(err, mdpp.ErrInvalidManifest) ||
		errors.Is(err, mdpp.ErrPluginNotFound) ||
		errors.Is(err, mdpp.ErrStyleNotFound) ||
		errors.Is(err, mdpp.ErrUnknownHighlight) ||
		errors.Is(err, mdpp.ErrInvalidKrokiURL) ||
		errors.Is(err, mdpp.ErrInvalidAssetPath) ||
		errors.Is(err, mdpp.ErrInvalidTOCDepth) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrReadPlugin) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrWatch) {
		return ExitIO
	}

	return ExitGeneral
}
