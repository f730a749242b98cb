// Package config loads the wikimark CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rgonek/wikimark/converter"
)

// MaxInputSize limits configuration files to 1MB.
var MaxInputSize = 1 << 20

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrConfigTooLarge = errors.New("config file exceeds maximum size")
)

// File is the on-disk configuration. Every field is optional; unset fields
// leave the preset values untouched.
type File struct {
	Preset              string          `yaml:"preset"`
	LinkBase            string          `yaml:"linkBase"`
	ImageBase           string          `yaml:"imageBase"`
	ImageNamespaces     []string        `yaml:"imageNamespaces"`
	MaxTableCols        int             `yaml:"maxTableCols"`
	HeadingOffset       int             `yaml:"headingOffset"`
	EmptyReferencesText string          `yaml:"emptyReferencesText"`
	Sanitize            *bool           `yaml:"sanitize"`
	Highlight           HighlightConfig `yaml:"highlight"`
	Templates           TemplatesConfig `yaml:"templates"`
	Output              OutputConfig    `yaml:"output"`
}

// HighlightConfig defines <syntaxhighlight> rendering options.
type HighlightConfig struct {
	Style   string `yaml:"style"`
	Classes *bool  `yaml:"classes"`
}

// TemplatesConfig defines template fallback rules and the static library.
type TemplatesConfig struct {
	Default string            `yaml:"default"`
	ByName  map[string]string `yaml:"byName"`
	Library map[string]string `yaml:"library"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Dir string `yaml:"dir"` // empty = next to the input, or stdout for one file
}

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, rejecting unknown fields.
func Parse(data []byte) (*File, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxInputSize)
	}

	var f File
	if len(data) == 0 {
		return &f, nil
	}
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return &f, nil
}

// Apply overlays the fields set in f onto cfg.
func (f *File) Apply(cfg converter.Config) converter.Config {
	if f == nil {
		return cfg
	}

	if f.LinkBase != "" {
		cfg.LinkBase = f.LinkBase
	}
	if f.ImageBase != "" {
		cfg.ImageBase = f.ImageBase
	}
	if len(f.ImageNamespaces) > 0 {
		cfg.ImageNamespaces = append([]string(nil), f.ImageNamespaces...)
	}
	if f.MaxTableCols != 0 {
		cfg.MaxTableCols = f.MaxTableCols
	}
	if f.HeadingOffset != 0 {
		cfg.HeadingOffset = f.HeadingOffset
	}
	if f.EmptyReferencesText != "" {
		cfg.EmptyReferencesText = f.EmptyReferencesText
	}
	if f.Sanitize != nil {
		cfg.Sanitize = *f.Sanitize
	}
	if f.Highlight.Style != "" {
		cfg.Highlight.Style = f.Highlight.Style
	}
	if f.Highlight.Classes != nil {
		cfg.Highlight.Classes = *f.Highlight.Classes
	}
	if f.Templates.Default != "" {
		cfg.Templates.Default = converter.TemplateMode(f.Templates.Default)
	}
	if len(f.Templates.ByName) > 0 {
		byName := make(map[string]converter.TemplateMode, len(cfg.Templates.ByName)+len(f.Templates.ByName))
		for name, mode := range cfg.Templates.ByName {
			byName[name] = mode
		}
		for name, mode := range f.Templates.ByName {
			byName[name] = converter.TemplateMode(mode)
		}
		cfg.Templates.ByName = byName
	}

	return cfg
}
