// Package sanitize provides the HTML sanitizer applied to converter output.
//
// The policy follows bluemonday's user-generated-content policy and also
// keeps the attributes the converter itself emits: classes on template
// diagnostics, footnote markers and lists, ids used by footnote back-links,
// and the target/rel pair on external links. Ids are restricted to word
// characters and hyphens on every element.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/npillmayer/schuko/tracing"
	"github.com/rgonek/wikimark/converter"
)

func tracer() tracing.Trace {
	return tracing.Select("wikimark.sanitize")
}

var (
	classPattern  = regexp.MustCompile(`^[\w\- ]+$`)
	idPattern     = regexp.MustCompile(`^[\w\-]+$`)
	targetPattern = regexp.MustCompile(`^_blank$`)
	relPattern    = regexp.MustCompile(`^[a-z ]+$`)
	langPattern   = regexp.MustCompile(`^[a-zA-Z]{2,20}$`)
)

// Options controls what the policy keeps beyond the compiler's own markup.
type Options struct {
	// InlineStyles keeps the color and font styles chroma writes when
	// highlighting is configured without CSS classes.
	InlineStyles bool
}

// Sanitizer is a converter.Sanitizer backed by a bluemonday policy.
// It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

var _ converter.Sanitizer = (*Sanitizer)(nil)

// New builds a Sanitizer for the given options.
func New(opts Options) *Sanitizer {
	p := bluemonday.NewPolicy()

	// Mirrors UGCPolicy except for ids, which must match idPattern.
	p.AllowStandardURLs()
	p.AllowAttrs("dir").Matching(bluemonday.Direction).Globally()
	p.AllowAttrs("lang").Matching(langPattern).Globally()
	p.AllowAttrs("title").Matching(bluemonday.Paragraph).Globally()
	p.AllowAttrs("id").Matching(idPattern).Globally()

	p.AllowElements(
		"article", "aside", "details", "figcaption", "figure", "footer", "header",
		"section", "summary", "div", "span", "p", "br", "hr", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"b", "i", "u", "s", "strong", "em", "big", "small", "mark", "del", "ins",
		"sup", "sub", "abbr", "cite", "dfn", "kbd", "samp", "var", "q", "tt",
		"pre", "code", "caption",
	)
	p.AllowLists()
	p.AllowTables()
	p.AllowImages()

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(targetPattern).OnElements("a")
	p.AllowAttrs("rel").Matching(relPattern).OnElements("a")
	p.AllowAttrs("class").Matching(classPattern).OnElements(
		"span", "sup", "ol", "ul", "p", "table", "tr", "pre", "code", "img", "div",
	)

	if opts.InlineStyles {
		p.AllowStyles(
			"color", "background-color", "font-weight", "font-style", "text-decoration",
		).OnElements("span", "pre", "code")
	}

	tracer().Debugf("sanitizer policy built (inline styles: %v)", opts.InlineStyles)
	return &Sanitizer{policy: p}
}

// Sanitize returns html with everything outside the policy removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
