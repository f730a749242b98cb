package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	externalLinkPattern     = regexp.MustCompile(`\[((?:[a-zA-Z][a-zA-Z0-9+.\-]*://|//|mailto:)[^\s\]]+)(?:\s+([^\]]+))?\]`)
	internalLinkPattern     = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	residualTemplatePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	stashPattern            = regexp.MustCompile("\uE002([0-9]+)\uE003")
)

// inlineStash keeps HTML emitted by the link steps out of reach of the
// later steps of the same compileInline call.
type inlineStash struct {
	parts []string
}

func (st *inlineStash) put(html string) string {
	st.parts = append(st.parts, html)
	return fmt.Sprintf("%c%d%c", stashOpen, len(st.parts)-1, stashClose)
}

func (st *inlineStash) expand(text string) string {
	for i := 0; i <= len(st.parts) && strings.ContainsRune(text, stashOpen); i++ {
		text = stashPattern.ReplaceAllStringFunc(text, func(token string) string {
			index, err := strconv.Atoi(token[len(string(stashOpen)) : len(token)-len(string(stashClose))])
			if err != nil || index >= len(st.parts) {
				return ""
			}
			return st.parts[index]
		})
	}
	return text
}

// compileInline applies the inline rules in order: templates, external
// links, internal links and images, emphasis, then escaping of leftover
// template braces.
func (s *state) compileInline(text string) string {
	if text == "" {
		return ""
	}

	stash := &inlineStash{}
	return stash.expand(s.compileInlineWith(text, stash))
}

// compileInlineWith runs the inline rules against a shared stash. Link
// labels are compiled through it so tokens from the enclosing text keep
// their meaning.
func (s *state) compileInlineWith(text string, stash *inlineStash) string {
	if text == "" {
		return ""
	}

	text = s.expandTemplates(text, stash)
	text = s.convertExternalLinks(text, stash)
	text = s.convertInternalLinks(text, stash)
	text = compileEmphasis(text)
	return residualTemplatePattern.ReplaceAllStringFunc(text, escapeHTML)
}

func (s *state) convertExternalLinks(text string, stash *inlineStash) string {
	return externalLinkPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := externalLinkPattern.FindStringSubmatch(match)
		href := escapeHTML(sub[1])
		label := href
		if strings.TrimSpace(sub[2]) != "" {
			label = s.compileInlineWith(strings.TrimSpace(sub[2]), stash)
		}
		return stash.put(`<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + label + "</a>")
	})
}

func (s *state) convertInternalLinks(text string, stash *inlineStash) string {
	return internalLinkPattern.ReplaceAllStringFunc(text, func(match string) string {
		inside := internalLinkPattern.FindStringSubmatch(match)[1]
		return stash.put(s.renderInternalLink(inside, stash))
	})
}

// renderInternalLink renders [[target|label]]. A leading colon forces a
// plain link even for image namespaces.
func (s *state) renderInternalLink(inside string, stash *inlineStash) string {
	parts := strings.Split(inside, "|")
	target := strings.TrimSpace(parts[0])
	label := strings.TrimSpace(strings.Join(parts[1:], "|"))

	if strings.HasPrefix(target, ":") {
		target = strings.TrimSpace(target[1:])
	} else if filename, ok := s.imageFilename(target); ok {
		return s.renderImage(target, filename, parts[1:], stash)
	}

	if label == "" {
		label = target
	}

	page, anchor := target, ""
	if index := strings.Index(target, "#"); index >= 0 {
		page = strings.TrimSpace(target[:index])
		anchor = strings.TrimSpace(target[index+1:])
	}

	href := ""
	if page != "" {
		href = s.resolveLink("link", page)
	}
	if anchor != "" {
		href += "#" + encodeURIComponent(anchor)
	}

	return `<a href="` + escapeHTML(href) + `">` + s.compileInlineWith(label, stash) + "</a>"
}
