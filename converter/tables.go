package converter

import (
	"fmt"
	"regexp"
	"strings"
)

var classAttrPattern = regexp.MustCompile(`class\s*=\s*"(.*?)"`)

type tableCell struct {
	header bool
	text   string
}

// tableRow keeps the raw attributes of its "|-" line; they are not rendered.
type tableRow struct {
	attrs string
	cells []tableCell
}

type table struct {
	class   string
	caption string
	rows    []*tableRow
}

// parseTable reads table lines; lines[0] is the opening "{|" line.
func (s *state) parseTable(lines []string) table {
	t := table{class: extractClass(lines[0])}
	var current *tableRow
	dropped := 0

	appendCells := func(header bool, parts []string) {
		if current == nil {
			dropped += len(parts)
			return
		}
		for _, part := range parts {
			current.cells = append(current.cells, tableCell{header: header, text: strings.TrimSpace(part)})
		}
	}

	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(trimmed, "|-"):
			current = &tableRow{attrs: strings.TrimSpace(trimmed[2:])}
			t.rows = append(t.rows, current)
		case strings.HasPrefix(trimmed, "|+"):
			t.caption = strings.TrimSpace(trimmed[2:])
		case strings.HasPrefix(trimmed, "!"):
			appendCells(true, strings.Split(trimmed[1:], "!!"))
		case strings.HasPrefix(trimmed, "|"):
			appendCells(false, strings.Split(trimmed[1:], "||"))
		case isBlankLine(trimmed):
		default:
			if current == nil || len(current.cells) == 0 {
				continue
			}
			last := &current.cells[len(current.cells)-1]
			last.text = strings.TrimSpace(last.text + " " + strings.TrimSpace(trimmed))
		}
	}

	if dropped > 0 {
		s.addWarning(
			WarningDroppedContent,
			"table",
			fmt.Sprintf("dropped %d table cell(s) before the first row separator", dropped),
		)
	}

	return t
}

func extractClass(attrs string) string {
	match := classAttrPattern.FindStringSubmatch(attrs)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// renderTable converts a table region into HTML.
func (s *state) renderTable(lines []string) string {
	t := s.parseTable(lines)

	var html []string
	if t.class != "" {
		html = append(html, `<table class="`+escapeHTML(t.class)+`">`)
	} else {
		html = append(html, "<table>")
	}
	if t.caption != "" {
		html = append(html, "<caption>"+s.compileInline(t.caption)+"</caption>")
	}

	for index, row := range t.rows {
		if len(row.cells) > s.config.MaxTableCols {
			s.addWarning(
				WarningTableWidth,
				"table",
				fmt.Sprintf("row %d has %d cells, more than the advised maximum of %d", index+1, len(row.cells), s.config.MaxTableCols),
			)
		}

		html = append(html, "<tr>")
		for _, cell := range row.cells {
			tag := "td"
			if cell.header {
				tag = "th"
			}
			html = append(html, "<"+tag+">"+s.compileInline(cell.text)+"</"+tag+">")
		}
		html = append(html, "</tr>")
	}

	html = append(html, "</table>")
	return strings.Join(html, "\n")
}
