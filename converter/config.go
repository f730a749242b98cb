package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/npillmayer/schuko/tracing"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid converter config")

// TemplateMode controls how templates that no resolver handled are rendered.
type TemplateMode string

const (
	// TemplateDiagnostic renders a labeled span listing the name and arguments.
	TemplateDiagnostic TemplateMode = "diagnostic"
	// TemplateText renders the escaped invocation literally, braces included.
	TemplateText TemplateMode = "text"
	// TemplateStrip drops the invocation and records a warning.
	TemplateStrip TemplateMode = "strip"
)

// TemplateRules allows per-template fallback configuration.
type TemplateRules struct {
	Default TemplateMode            `json:"default"`
	ByName  map[string]TemplateMode `json:"byName,omitempty"`
}

// ModeFor resolves the fallback mode for a template name.
func (r TemplateRules) ModeFor(name string) TemplateMode {
	if name != "" && r.ByName != nil {
		if mode, ok := r.ByName[name]; ok {
			return mode
		}
		for key, mode := range r.ByName {
			if strings.EqualFold(key, name) {
				return mode
			}
		}
	}
	return r.Default
}

// HighlightConfig controls <syntaxhighlight> rendering.
type HighlightConfig struct {
	Style   string `json:"style,omitempty"`
	Classes bool   `json:"classes,omitempty"`
}

// Config holds all converter configuration options.
type Config struct {
	LinkBase            string          `json:"linkBase,omitempty"`
	ImageBase           string          `json:"imageBase,omitempty"`
	ImageNamespaces     []string        `json:"imageNamespaces,omitempty"`
	MaxTableCols        int             `json:"maxTableCols,omitempty"`
	HeadingOffset       int             `json:"headingOffset,omitempty"`
	EmptyReferencesText string          `json:"emptyReferencesText,omitempty"`
	Templates           TemplateRules   `json:"templates,omitempty"`
	Highlight           HighlightConfig `json:"highlight,omitempty"`
	Sanitize            bool            `json:"sanitize,omitempty"`

	LinkResolver     LinkResolver     `json:"-"`
	ImageResolver    ImageResolver    `json:"-"`
	TemplateResolver TemplateResolver `json:"-"`
	Sanitizer        Sanitizer        `json:"-"`
	Tracer           tracing.Trace    `json:"-"`
}

var defaultImageNamespaces = []string{"File", "Image", "Arquivo", "Ficheiro"}

func (c Config) applyDefaults() Config {
	if c.LinkBase == "" {
		c.LinkBase = "/goto/"
	}
	if c.ImageBase == "" {
		c.ImageBase = "/uploads/"
	}
	if len(c.ImageNamespaces) == 0 {
		c.ImageNamespaces = defaultImageNamespaces
	}
	if c.MaxTableCols == 0 {
		c.MaxTableCols = 50
	}
	if c.EmptyReferencesText == "" {
		c.EmptyReferencesText = "No references."
	}
	if c.Templates.Default == "" {
		c.Templates.Default = TemplateDiagnostic
	}
	if c.Highlight.Style == "" {
		c.Highlight.Style = "github"
	}

	return c
}

// clone returns a deep copy of Config for slice and map-backed fields.
func (c Config) clone() Config {
	cloned := c
	cloned.ImageNamespaces = append([]string(nil), c.ImageNamespaces...)
	cloned.Templates.ByName = cloneTemplateModeMap(c.Templates.ByName)
	return cloned
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	if c.MaxTableCols < 1 {
		return fmt.Errorf("%w: maxTableCols must be positive, got %d", ErrInvalidConfig, c.MaxTableCols)
	}
	if c.HeadingOffset < 0 || c.HeadingOffset > 5 {
		return fmt.Errorf("%w: headingOffset must be between 0 and 5, got %d", ErrInvalidConfig, c.HeadingOffset)
	}
	for _, ns := range c.ImageNamespaces {
		if strings.TrimSpace(ns) == "" || strings.Contains(ns, ":") {
			return fmt.Errorf("%w: invalid image namespace %q", ErrInvalidConfig, ns)
		}
	}
	if !validTemplateMode(c.Templates.Default) {
		return fmt.Errorf("%w: invalid templates.default %q", ErrInvalidConfig, c.Templates.Default)
	}
	for name, mode := range c.Templates.ByName {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: templates.byName contains empty key", ErrInvalidConfig)
		}
		if !validTemplateMode(mode) {
			return fmt.Errorf("%w: invalid templates.byName mode %q for %q", ErrInvalidConfig, mode, name)
		}
	}
	if _, ok := styles.Registry[strings.ToLower(c.Highlight.Style)]; !ok {
		return fmt.Errorf("%w: unknown highlight style %q", ErrInvalidConfig, c.Highlight.Style)
	}

	return nil
}

func validTemplateMode(mode TemplateMode) bool {
	return mode == TemplateDiagnostic || mode == TemplateText || mode == TemplateStrip
}

func cloneTemplateModeMap(src map[string]TemplateMode) map[string]TemplateMode {
	if src == nil {
		return nil
	}

	dst := make(map[string]TemplateMode, len(src))
	for key, value := range src {
		dst[key] = value
	}

	return dst
}
