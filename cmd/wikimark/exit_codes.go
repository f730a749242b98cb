package main

import (
	"errors"
	"os"

	"github.com/rgonek/wikimark/converter"
	"github.com/rgonek/wikimark/internal/config"
	"github.com/rgonek/wikimark/templatelib"
)

// Exit codes for the wikimark CLI.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrUnknownPreset) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, converter.ErrInvalidConfig) ||
		errors.Is(err, templatelib.ErrEmptyName) ||
		errors.Is(err, templatelib.ErrUnterminatedParameter) ||
		errors.Is(err, templatelib.ErrDuplicateTemplate) {
		return ExitUsage
	}

	return ExitGeneral
}
