package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rgonek/wikimark/converter"
	"github.com/rgonek/wikimark/internal/config"
)

const (
	presetBalanced = "balanced"
	presetRaw      = "raw"
	presetReadable = "readable"
	presetLossy    = "lossy"
)

// ErrUnknownPreset is returned for a --preset or config preset not listed below.
var ErrUnknownPreset = errors.New("unknown preset")

func presetConfig(preset string) (converter.Config, error) {
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "", presetBalanced:
		return converter.Config{
			Sanitize: true,
		}, nil
	case presetRaw:
		return converter.Config{
			Highlight: converter.HighlightConfig{Classes: true},
		}, nil
	case presetReadable:
		return converter.Config{
			Sanitize: true,
			Templates: converter.TemplateRules{
				Default: converter.TemplateText,
			},
		}, nil
	case presetLossy:
		return converter.Config{
			Sanitize: true,
			Templates: converter.TemplateRules{
				Default: converter.TemplateStrip,
			},
		}, nil
	default:
		return converter.Config{}, fmt.Errorf("%w %q (allowed: balanced, raw, readable, lossy)", ErrUnknownPreset, preset)
	}
}

// resolveConfig layers the preset, the config file and explicit flags, in
// that order of increasing precedence.
func resolveConfig(flags *cliFlags, file *config.File) (converter.Config, error) {
	preset := flags.preset
	if !flags.presetSet && file != nil && file.Preset != "" {
		preset = file.Preset
	}

	cfg, err := presetConfig(preset)
	if err != nil {
		return converter.Config{}, err
	}
	cfg = file.Apply(cfg)

	if flags.linkBase != "" {
		cfg.LinkBase = flags.linkBase
	}
	if flags.imageBase != "" {
		cfg.ImageBase = flags.imageBase
	}
	if flags.highlightStyle != "" {
		cfg.Highlight.Style = flags.highlightStyle
	}
	if flags.highlightClasses {
		cfg.Highlight.Classes = true
	}
	if flags.noSanitize {
		cfg.Sanitize = false
	}

	return cfg, nil
}
