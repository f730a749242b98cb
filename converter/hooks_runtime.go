package converter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultResolver maps links and images onto fixed URL prefixes.
// It is used when no caller resolver is configured and as the fallback
// when a caller resolver fails.
type DefaultResolver struct {
	LinkBase  string
	ImageBase string
}

// ResolveLink returns LinkBase followed by the encoded page name.
func (r DefaultResolver) ResolveLink(_ context.Context, page string) (string, error) {
	return r.LinkBase + encodeURIComponent(page), nil
}

// ResolveImage returns ImageBase followed by the encoded filename.
func (r DefaultResolver) ResolveImage(_ context.Context, filename string) (string, error) {
	return r.ImageBase + encodeURIComponent(filename), nil
}

var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent percent-encodes s after NFC normalization, leaving
// the same unreserved set as the ECMAScript function of the same name.
func encodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(norm.NFC.String(s)))
}

func (s *state) defaultResolver() DefaultResolver {
	return DefaultResolver{LinkBase: s.config.LinkBase, ImageBase: s.config.ImageBase}
}

func (s *state) resolveLink(construct, page string) string {
	fallback, _ := s.defaultResolver().ResolveLink(s.ctx, page)
	if s.config.LinkResolver == nil {
		return fallback
	}

	href, err := callResolver(func() (string, error) {
		return s.config.LinkResolver.ResolveLink(s.ctx, page)
	})
	if err == nil && strings.TrimSpace(href) == "" {
		err = ErrUnresolved
	}
	if err != nil {
		s.resolverFailed(construct, "link", page, err)
		return fallback
	}

	return strings.TrimSpace(href)
}

func (s *state) resolveImage(construct, filename string) string {
	fallback, _ := s.defaultResolver().ResolveImage(s.ctx, filename)
	if s.config.ImageResolver == nil {
		return fallback
	}

	src, err := callResolver(func() (string, error) {
		return s.config.ImageResolver.ResolveImage(s.ctx, filename)
	})
	if err == nil && strings.TrimSpace(src) == "" {
		err = ErrUnresolved
	}
	if err != nil {
		s.resolverFailed(construct, "image", filename, err)
		return fallback
	}

	return strings.TrimSpace(src)
}

// resolveTemplate asks the caller resolver for a rendering. The boolean
// result is false when the fallback rendering must be used.
func (s *state) resolveTemplate(call TemplateCall) (string, bool) {
	if s.config.TemplateResolver == nil {
		return "", false
	}

	var output TemplateOutput
	_, err := callResolver(func() (string, error) {
		var resolveErr error
		output, resolveErr = s.config.TemplateResolver.ResolveTemplate(s.ctx, call)
		return output.HTML, resolveErr
	})
	if err != nil {
		s.resolverFailed("template", "template", call.Name, err)
		return "", false
	}
	if !output.Handled {
		return "", false
	}

	return output.HTML, true
}

func (s *state) resolverFailed(construct, kind, reference string, err error) {
	if errors.Is(err, ErrUnresolved) {
		s.addWarning(
			WarningUnresolvedReference,
			construct,
			fmt.Sprintf("unresolved %s reference %q; using fallback rendering", kind, reference),
		)
		return
	}

	s.tracer().Errorf("%s resolver failed for %q: %v", kind, reference, err)
	s.addWarning(
		WarningResolverFailure,
		construct,
		fmt.Sprintf("%s resolver failed for %q: %v; using fallback rendering", kind, reference, err),
	)
}

// callResolver runs fn and converts a panic into an error.
func callResolver(fn func() (string, error)) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = fmt.Errorf("resolver panic: %v", r)
		}
	}()

	return fn()
}
