package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type spanKind string

const (
	spanNowiki     spanKind = "nowiki"
	spanPre        spanKind = "pre"
	spanCode       spanKind = "code"
	spanHighlight  spanKind = "highlight"
	spanMarkup     spanKind = "markup"
	spanReferences spanKind = "references"
)

// protectedSpan is the raw content standing behind a placeholder token.
type protectedSpan struct {
	kind spanKind
	raw  string
	lang string
}

// Placeholder tokens are delimited by private-use runes, which are removed
// from the source before compilation starts.
const (
	tokenOpen  = '\uE000'
	tokenClose = '\uE001'
	stashOpen  = '\uE002'
	stashClose = '\uE003'
)

func isReservedRune(r rune) bool {
	return r >= tokenOpen && r <= stashClose
}

var (
	tokenPattern  = regexp.MustCompile("\uE000([a-z]+)-([0-9]+)\uE001")
	nowikiPattern = regexp.MustCompile(`(?is)<nowiki\s*>(.*?)</nowiki\s*>`)
	prePattern    = regexp.MustCompile(`(?is)<pre\s*>(.*?)</pre\s*>`)
	codePattern   = regexp.MustCompile(`(?is)<code\s*>(.*?)</code\s*>`)

	highlightPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(<syntaxhighlight(?:\s[^>]*)?>)(.*?)</syntaxhighlight\s*>`),
		regexp.MustCompile(`(?is)(<source(?:\s[^>]*)?>)(.*?)</source\s*>`),
	}

	unterminatedPattern = regexp.MustCompile(`(?i)<(nowiki|pre|code|syntaxhighlight|source)(?:\s[^>/]*)?>`)
	emptyNowikiPattern  = regexp.MustCompile(`(?i)<nowiki\s*/>`)
	commentPattern      = regexp.MustCompile(`(?s)<!--.*?-->`)
)

func (s *state) newToken(kind spanKind, raw, lang string) string {
	index := len(s.spans)
	s.spans = append(s.spans, protectedSpan{kind: kind, raw: raw, lang: lang})
	return fmt.Sprintf("%c%s-%d%c", tokenOpen, kind, index, tokenClose)
}

func (s *state) lookupToken(token string) (protectedSpan, bool) {
	match := tokenPattern.FindStringSubmatch(token)
	if match == nil {
		return protectedSpan{}, false
	}
	index, err := strconv.Atoi(match[2])
	if err != nil || index < 0 || index >= len(s.spans) {
		return protectedSpan{}, false
	}
	span := s.spans[index]
	if string(span.kind) != match[1] {
		return protectedSpan{}, false
	}
	return span, true
}

// protect replaces verbatim regions with placeholder tokens. Earlier kinds
// mask their content from later ones.
func (s *state) protect(text string) string {
	text = s.protectPattern(text, nowikiPattern, spanNowiki)
	for _, pattern := range highlightPatterns {
		text = pattern.ReplaceAllStringFunc(text, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			lang, _ := tagAttribute(sub[1], "lang")
			return s.newToken(spanHighlight, sub[2], strings.TrimSpace(lang))
		})
	}
	text = s.protectPattern(text, prePattern, spanPre)
	text = s.protectPattern(text, codePattern, spanCode)

	for _, match := range unterminatedPattern.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(match[1])
		s.addWarning(
			WarningUnterminatedSpan,
			tag,
			fmt.Sprintf("unterminated <%s> left unprotected", tag),
		)
	}

	return text
}

func (s *state) protectPattern(text string, pattern *regexp.Regexp, kind spanKind) string {
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := pattern.FindStringSubmatch(match)
		return s.newToken(kind, sub[1], "")
	})
}

// stripInvisibleMarkup removes comments and empty <nowiki/> separators.
func stripInvisibleMarkup(text string) string {
	text = commentPattern.ReplaceAllString(text, "")
	return emptyNowikiPattern.ReplaceAllString(text, "")
}

// restore replaces every placeholder token with its final rendering.
func (s *state) restore(text string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		span, ok := s.lookupToken(token)
		if !ok {
			return ""
		}
		return s.renderSpan(span)
	})
}

func (s *state) renderSpan(span protectedSpan) string {
	switch span.kind {
	case spanNowiki:
		return escapeHTML(span.raw)
	case spanPre:
		return "<pre>" + escapeHTML(s.rawText(span.raw)) + "</pre>"
	case spanCode:
		return "<code>" + escapeHTML(s.rawText(span.raw)) + "</code>"
	case spanHighlight:
		return s.highlight(s.rawText(span.raw), span.lang)
	case spanMarkup:
		return span.raw
	default:
		return ""
	}
}

// rawText expands tokens nested inside a protected span back to their raw
// content, so that <nowiki> inside <pre> shows its text.
func (s *state) rawText(text string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		span, ok := s.lookupToken(token)
		if !ok {
			return ""
		}
		return span.raw
	})
}
