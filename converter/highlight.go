package converter

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlight renders a <syntaxhighlight> body with chroma. Any failure
// falls back to an escaped <pre> block.
func (s *state) highlight(code, lang string) string {
	code = strings.Trim(code, "\n")

	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		if lang != "" {
			s.addWarning(
				WarningHighlightFallback,
				"syntaxhighlight",
				fmt.Sprintf("no lexer for language %q; rendering plain text", lang),
			)
		}
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return s.highlightFailed(code, lang, err)
	}

	formatter := chromahtml.New(chromahtml.WithClasses(s.config.Highlight.Classes))
	var sb strings.Builder
	if err := formatter.Format(&sb, styles.Get(s.config.Highlight.Style), iterator); err != nil {
		return s.highlightFailed(code, lang, err)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (s *state) highlightFailed(code, lang string, err error) string {
	s.tracer().Errorf("highlighting %q failed: %v", lang, err)
	s.addWarning(
		WarningHighlightFallback,
		"syntaxhighlight",
		fmt.Sprintf("highlighting %q failed: %v", lang, err),
	)
	return "<pre>" + escapeHTML(code) + "</pre>"
}
