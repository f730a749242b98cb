package converter

import (
	"context"
	"errors"
)

// ErrUnresolved indicates that a resolver could not map a link, image or template.
var ErrUnresolved = errors.New("unresolved link, image or template reference")

// ConvertOptions carries optional per-conversion context.
type ConvertOptions struct {
	SourcePath string
}

// LinkResolver maps an internal page target to a URL.
type LinkResolver interface {
	ResolveLink(ctx context.Context, page string) (string, error)
}

// ImageResolver maps an image filename to a URL.
type ImageResolver interface {
	ResolveImage(ctx context.Context, filename string) (string, error)
}

// TemplateResolver renders a template invocation. A result with Handled
// set to false selects the configured fallback rendering.
type TemplateResolver interface {
	ResolveTemplate(ctx context.Context, call TemplateCall) (TemplateOutput, error)
}

// Sanitizer cleans the final HTML when Config.Sanitize is set.
type Sanitizer interface {
	Sanitize(html string) string
}

// LinkResolverFunc adapts a function to LinkResolver.
type LinkResolverFunc func(ctx context.Context, page string) (string, error)

func (f LinkResolverFunc) ResolveLink(ctx context.Context, page string) (string, error) {
	return f(ctx, page)
}

// ImageResolverFunc adapts a function to ImageResolver.
type ImageResolverFunc func(ctx context.Context, filename string) (string, error)

func (f ImageResolverFunc) ResolveImage(ctx context.Context, filename string) (string, error) {
	return f(ctx, filename)
}

// TemplateResolverFunc adapts a function to TemplateResolver.
type TemplateResolverFunc func(ctx context.Context, call TemplateCall) (TemplateOutput, error)

func (f TemplateResolverFunc) ResolveTemplate(ctx context.Context, call TemplateCall) (TemplateOutput, error) {
	return f(ctx, call)
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(html string) string

func (f SanitizerFunc) Sanitize(html string) string {
	return f(html)
}

// TemplateCall describes a single template invocation.
type TemplateCall struct {
	SourcePath string
	Name       string
	Positional []string
	Named      map[string]string
	// NamedOrder lists named keys in first-occurrence order.
	NamedOrder []string
}

// TemplateOutput contains resolver-provided HTML for a template.
type TemplateOutput struct {
	HTML    string
	Handled bool
}
