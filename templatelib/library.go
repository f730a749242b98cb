// Package templatelib resolves templates from a static library of
// wikitext bodies. Bodies reference arguments with triple braces:
// {{{1}}} for the first positional argument, {{{name}}} for a named one and
// {{{name|default}}} for a reference with a fallback value.
package templatelib

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/schuko/tracing"
	"github.com/rgonek/wikimark/converter"
)

func tracer() tracing.Trace {
	return tracing.Select("wikimark.templatelib")
}

var (
	// ErrEmptyName is returned for a library entry or parameter without a name.
	ErrEmptyName = errors.New("empty template name")
	// ErrUnterminatedParameter is returned for a body with an unclosed {{{.
	ErrUnterminatedParameter = errors.New("unterminated template parameter")
	// ErrDuplicateTemplate is returned when two entries normalize to one name.
	ErrDuplicateTemplate = errors.New("duplicate template")
)

const (
	paramOpen  = "{{{"
	paramClose = "}}}"
)

type segment struct {
	literal    string
	param      string
	fallback   string
	hasDefault bool
}

type template struct {
	name     string
	segments []segment
}

// Library is a converter.TemplateResolver over parsed template bodies. It is
// immutable after New and safe for concurrent use.
type Library struct {
	templates *treemap.Map
}

var _ converter.TemplateResolver = (*Library)(nil)

// New parses every body in defs, keyed by template name.
func New(defs map[string]string) (*Library, error) {
	lib := &Library{templates: treemap.NewWithStringComparator()}

	for name, body := range defs {
		key := NormalizeName(name)
		if key == "" {
			return nil, ErrEmptyName
		}
		if _, exists := lib.templates.Get(key); exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTemplate, key)
		}

		segments, err := parseBody(body)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		lib.templates.Put(key, &template{name: key, segments: segments})
	}

	tracer().Debugf("template library loaded with %d entries", lib.templates.Size())
	return lib, nil
}

// Names returns the normalized template names in sorted order.
func (l *Library) Names() []string {
	keys := l.templates.Keys()
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.(string)
	}
	return names
}

// ResolveTemplate expands the library entry for call. Unknown templates are
// reported as not handled.
func (l *Library) ResolveTemplate(_ context.Context, call converter.TemplateCall) (converter.TemplateOutput, error) {
	value, ok := l.templates.Get(NormalizeName(call.Name))
	if !ok {
		return converter.TemplateOutput{}, nil
	}

	t := value.(*template)
	var sb strings.Builder
	for _, seg := range t.segments {
		if seg.param == "" {
			sb.WriteString(seg.literal)
			continue
		}
		if arg, ok := lookupArgument(call, seg.param); ok {
			sb.WriteString(arg)
			continue
		}
		if seg.hasDefault {
			sb.WriteString(seg.fallback)
			continue
		}
		sb.WriteString(seg.literal)
	}

	return converter.TemplateOutput{HTML: sb.String(), Handled: true}, nil
}

// lookupArgument finds a named argument first, then a positional one for
// numeric parameter names.
func lookupArgument(call converter.TemplateCall, param string) (string, bool) {
	if value, ok := call.Named[param]; ok {
		return value, true
	}
	index, err := strconv.Atoi(param)
	if err != nil || index < 1 || index > len(call.Positional) {
		return "", false
	}
	return call.Positional[index-1], true
}

// parseBody splits body into literal text and parameter references.
func parseBody(body string) ([]segment, error) {
	var segments []segment
	rest := body
	offset := 0

	for {
		start := strings.Index(rest, paramOpen)
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+len(paramOpen):], paramClose)
		if end < 0 {
			return nil, fmt.Errorf("%w at offset %d", ErrUnterminatedParameter, offset+start)
		}
		end += start + len(paramOpen)

		if start > 0 {
			segments = append(segments, segment{literal: rest[:start]})
		}

		inner := rest[start+len(paramOpen) : end]
		name, fallback, hasDefault := strings.Cut(inner, "|")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: parameter at offset %d", ErrEmptyName, offset+start)
		}
		segments = append(segments, segment{
			literal:    rest[start : end+len(paramClose)],
			param:      name,
			fallback:   fallback,
			hasDefault: hasDefault,
		})

		consumed := end + len(paramClose)
		offset += consumed
		rest = rest[consumed:]
	}

	if rest != "" {
		segments = append(segments, segment{literal: rest})
	}
	return segments, nil
}

// NormalizeName maps a template name to its library key. Underscores count
// as spaces and the first letter is case-insensitive.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
