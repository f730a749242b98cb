package converter

import (
	"fmt"
	"regexp"
	"strings"
)

type lineKind int

const (
	lineParagraph lineKind = iota
	lineTableStart
	lineHeading
	lineRule
	linePreformatted
	lineList
	lineBlank
)

var (
	rulePattern        = regexp.MustCompile(`^-{4,}\s*$`)
	reflistLinePattern = regexp.MustCompile(`(?i)^\s*\{\{\s*reflist\s*\}\}\s*$`)
)

// classifyLine applies the block checks in their fixed order.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "{|"):
		return lineTableStart
	case isHeadingLine(line):
		return lineHeading
	case rulePattern.MatchString(line):
		return lineRule
	case isPreformattedLine(line):
		return linePreformatted
	case isListLine(line):
		return lineList
	case isBlankLine(line):
		return lineBlank
	default:
		return lineParagraph
	}
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isPreformattedLine(line string) bool {
	return strings.HasPrefix(line, " ") && !isBlankLine(line)
}

func isListLine(line string) bool {
	return line != "" && strings.ContainsRune("*#:;", rune(line[0]))
}

func isHeadingLine(line string) bool {
	_, _, ok := parseHeading(line)
	return ok
}

// parseHeading returns the marker count and inner text of a heading line.
// Leading and trailing marker counts must match.
func parseHeading(line string) (int, string, bool) {
	trimmed := strings.TrimRight(line, " \t")
	lead := len(trimmed) - len(strings.TrimLeft(trimmed, "="))
	trail := len(trimmed) - len(strings.TrimRight(trimmed, "="))
	if lead < 1 || lead > 6 || lead != trail || lead+trail >= len(trimmed) {
		return 0, "", false
	}
	return lead, strings.TrimSpace(trimmed[lead : len(trimmed)-trail]), true
}

// convertBlocks runs the line state machine. Every branch consumes at least
// one line, so the position pointer only moves forward.
func (s *state) convertBlocks(lines []string) (string, error) {
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		if err := s.checkContext(); err != nil {
			return "", err
		}

		line := lines[i]
		switch classifyLine(line) {
		case lineTableStart:
			end := i + 1
			for end < len(lines) && !strings.HasPrefix(lines[end], "|}") {
				end++
			}
			out = append(out, s.renderTable(lines[i:end]))
			i = end
			if i < len(lines) {
				i++
			}

		case lineHeading:
			level, text, _ := parseHeading(line)
			level += s.config.HeadingOffset
			if level > 6 {
				level = 6
			}
			out = append(out, fmt.Sprintf("<h%d>%s</h%d>", level, s.compileInline(text), level))
			i++

		case lineRule:
			out = append(out, "<hr/>")
			i++

		case linePreformatted:
			block, next := collectPreformatted(lines, i)
			out = append(out, "<pre>"+escapeHTML(strings.Join(block, "\n"))+"</pre>")
			i = next

		case lineList:
			end := i + 1
			for end < len(lines) && isListLine(lines[end]) {
				end++
			}
			out = append(out, s.renderList(lines[i:end]))
			i = end

		case lineBlank:
			out = append(out, "")
			i++

		default:
			if block, ok := s.standaloneBlock(line); ok {
				out = append(out, block)
				i++
				continue
			}
			end := i + 1
			for end < len(lines) && classifyLine(lines[end]) == lineParagraph && !s.isStandaloneBlock(lines[end]) {
				end++
			}
			text := strings.TrimSpace(strings.Join(lines[i:end], " "))
			out = append(out, s.wrapParagraph(s.compileInline(text)))
			i = end
		}
	}

	return strings.Join(out, "\n"), nil
}

// standaloneBlock reports whether line holds nothing but a block-level
// placeholder or a references list marker. Such lines are never wrapped in
// a paragraph.
func (s *state) standaloneBlock(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if reflistLinePattern.MatchString(trimmed) {
		return s.referencesToken(), true
	}
	if !strings.HasPrefix(trimmed, string(tokenOpen)) {
		return "", false
	}
	if loc := tokenPattern.FindStringIndex(trimmed); loc == nil || loc[0] != 0 || loc[1] != len(trimmed) {
		return "", false
	}
	span, ok := s.lookupToken(trimmed)
	if !ok {
		return "", false
	}
	switch span.kind {
	case spanPre, spanHighlight, spanReferences:
		return trimmed, true
	default:
		return "", false
	}
}

// wrapParagraph wraps compiled text in a paragraph. A references
// placeholder inside the text closes the paragraph around it, since the
// rendered list is block content.
func (s *state) wrapParagraph(html string) string {
	if s.refsTok == "" || !strings.Contains(html, s.refsTok) {
		return "<p>" + html + "</p>"
	}

	var blocks []string
	for i, part := range strings.Split(html, s.refsTok) {
		if i > 0 {
			blocks = append(blocks, s.refsTok)
		}
		if part = strings.TrimSpace(part); part != "" {
			blocks = append(blocks, "<p>"+part+"</p>")
		}
	}
	return strings.Join(blocks, "\n")
}

func (s *state) isStandaloneBlock(line string) bool {
	_, ok := s.standaloneBlock(line)
	return ok
}

// collectPreformatted consumes space-prefixed lines starting at i together
// with the blank lines that follow each of them.
func collectPreformatted(lines []string, i int) ([]string, int) {
	var block []string
	for i < len(lines) {
		switch {
		case isPreformattedLine(lines[i]):
			block = append(block, lines[i][1:])
		case isBlankLine(lines[i]):
			block = append(block, "")
		default:
			return block, i
		}
		i++
	}
	return block, i
}
