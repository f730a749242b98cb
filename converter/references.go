package converter

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	refPattern           = regexp.MustCompile(`(?is)<ref(\s[^>]*?)?(?:/>|>(.*?)</ref\s*>)`)
	referencesTagPattern = regexp.MustCompile(`(?is)<references\s*/>|<references\s*>\s*</references\s*>`)
)

type referenceCollector struct {
	footnotes []Footnote
	byName    map[string]int
	uses      map[int]int
}

func newReferenceCollector() *referenceCollector {
	return &referenceCollector{
		byName: make(map[string]int),
		uses:   make(map[int]int),
	}
}

func (c *referenceCollector) count() int {
	return len(c.footnotes)
}

// add registers a footnote occurrence and returns its number and the
// occurrence count for that number, starting at 1.
func (c *referenceCollector) add(name, body string) (int, int) {
	if name != "" {
		if index, ok := c.byName[name]; ok {
			if c.footnotes[index].Body == "" {
				c.footnotes[index].Body = body
			}
			number := index + 1
			c.uses[number]++
			return number, c.uses[number]
		}
	}

	c.footnotes = append(c.footnotes, Footnote{
		Number: len(c.footnotes) + 1,
		Name:   name,
		Body:   body,
	})
	index := len(c.footnotes) - 1
	if name != "" {
		c.byName[name] = index
	}
	number := index + 1
	c.uses[number] = 1
	return number, 1
}

// collectReferences replaces <ref> occurrences with numbered markers.
func (s *state) collectReferences(text string) string {
	return refPattern.ReplaceAllStringFunc(text, func(match string) string {
		loc := refPattern.FindStringSubmatchIndex(match)
		attrs := ""
		if loc[2] >= 0 {
			attrs = match[loc[2]:loc[3]]
		}
		selfClosing := loc[4] < 0
		body := ""
		if !selfClosing {
			body = strings.TrimSpace(match[loc[4]:loc[5]])
		}

		name, _ := tagAttribute("<ref"+attrs+">", "name")
		name = strings.TrimSpace(name)
		if name == "" && body == "" {
			s.addWarning(WarningDroppedContent, "ref", "empty reference without name dropped")
			return ""
		}

		number, use := s.refs.add(name, body)
		backLink := fmt.Sprintf("ref-link-%d", number)
		if use > 1 {
			backLink = fmt.Sprintf("ref-link-%d-%d", number, use)
		}
		marker := fmt.Sprintf(`<sup class="mw-ref"><a href="#ref-%d" id="%s">[%d]</a></sup>`, number, backLink, number)
		return s.newToken(spanMarkup, marker, "")
	})
}

// markReferenceLists replaces <references/> with the references placeholder.
func (s *state) markReferenceLists(text string) string {
	return referencesTagPattern.ReplaceAllStringFunc(text, func(string) string {
		return s.referencesToken()
	})
}

func (s *state) referencesToken() string {
	if s.refsTok == "" {
		s.refsTok = s.newToken(spanReferences, "", "")
	}
	return s.refsTok
}

// renderReferences materializes the footnote list at every references
// placeholder and returns the footnotes with compiled bodies.
func (s *state) renderReferences(html string) (string, []Footnote) {
	if s.refs.count() == 0 && s.refsTok == "" {
		return html, nil
	}

	var footnotes []Footnote
	var list strings.Builder
	list.WriteString(`<ol class="references">`)
	for _, footnote := range s.refs.footnotes {
		if footnote.Body == "" {
			s.addWarning(
				WarningUnresolvedReference,
				"ref",
				fmt.Sprintf("reference %q is used but never defined", footnote.Name),
			)
		}
		body := s.compileInline(footnote.Body)
		fmt.Fprintf(&list, `<li id="ref-%d">%s</li>`, footnote.Number, body)
		footnote.Body = s.restore(body)
		footnotes = append(footnotes, footnote)
	}
	list.WriteString("</ol>")

	if s.refsTok == "" {
		return html, footnotes
	}

	rendered := list.String()
	if len(footnotes) == 0 {
		rendered = `<p class="references-empty">` + escapeHTML(s.config.EmptyReferencesText) + "</p>"
	}

	html = strings.ReplaceAll(html, "<p>"+s.refsTok+"</p>", rendered)
	html = strings.ReplaceAll(html, s.refsTok, rendered)
	return html, footnotes
}
