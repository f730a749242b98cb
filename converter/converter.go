package converter

import (
	"context"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("wikimark.converter")
}

// Converter compiles wikitext to HTML. A Converter is immutable after New
// and safe for concurrent use.
type Converter struct {
	config Config
}

type state struct {
	config   Config
	ctx      context.Context
	options  ConvertOptions
	spans    []protectedSpan
	refs     *referenceCollector
	refsTok  string
	warnings []Warning
}

// New creates a new Converter with the given config.
func New(config Config) (*Converter, error) {
	cfg := config.applyDefaults().clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Converter{
		config: cfg,
	}, nil
}

// Compile converts source with a one-off Converter and returns the HTML.
func Compile(source string, cfg Config) (string, error) {
	conv, err := New(cfg)
	if err != nil {
		return "", err
	}
	result, err := conv.Convert(source)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// Convert takes a wikitext document and returns an HTML fragment.
func (c *Converter) Convert(source string) (Result, error) {
	return c.ConvertWithContext(context.Background(), source, ConvertOptions{})
}

// ConvertWithContext converts wikitext using caller-provided context and options.
// Malformed markup never fails; an error is returned only when ctx is done.
func (c *Converter) ConvertWithContext(ctx context.Context, source string, opts ConvertOptions) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &state{
		config:  c.config,
		ctx:     ctx,
		options: opts,
		refs:    newReferenceCollector(),
	}

	if err := s.checkContext(); err != nil {
		return Result{}, err
	}

	text := normalizeSource(source)
	text = s.protect(text)
	text = stripInvisibleMarkup(text)
	text = s.collectReferences(text)
	text = s.markReferenceLists(text)
	s.tracer().Debugf("protected %d spans, collected %d footnotes", len(s.spans), s.refs.count())

	html, err := s.convertBlocks(strings.Split(text, "\n"))
	if err != nil {
		return Result{}, err
	}

	html, footnotes := s.renderReferences(html)
	html = s.restore(html)

	if s.config.Sanitize {
		if s.config.Sanitizer != nil {
			html = s.config.Sanitizer.Sanitize(html)
		} else {
			s.addWarning(WarningSanitizerMissing, "document", "sanitize requested but no sanitizer configured; output is unsanitized")
		}
	}

	return Result{
		HTML:      html,
		Footnotes: footnotes,
		Warnings:  s.warnings,
	}, nil
}

func (s *state) addWarning(warnType WarningType, construct, message string) {
	s.warnings = append(s.warnings, Warning{
		Type:      warnType,
		Construct: construct,
		Message:   message,
	})
}

func (s *state) checkContext() error {
	if s.ctx == nil {
		return nil
	}
	return s.ctx.Err()
}

func (s *state) tracer() tracing.Trace {
	if s.config.Tracer != nil {
		return s.config.Tracer
	}
	return tracer()
}

// normalizeSource unifies line endings and removes runes reserved for
// placeholder tokens.
func normalizeSource(source string) string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	return strings.Map(func(r rune) rune {
		if isReservedRune(r) {
			return -1
		}
		return r
	}, source)
}
