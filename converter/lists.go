package converter

import (
	"regexp"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
)

var listLinePattern = regexp.MustCompile(`^([*#:;]+)\s*(.*)$`)

var listMarkerTags = map[rune]string{
	'*': "ul",
	'#': "ol",
	':': "dd",
	';': "dt",
}

// listStack holds the currently open list containers.
type listStack struct {
	tags *arraystack.Stack
}

func newListStack() *listStack {
	return &listStack{tags: arraystack.New()}
}

func (l *listStack) depth() int {
	return l.tags.Size()
}

// open returns the open containers from outermost to innermost.
func (l *listStack) open() []string {
	values := l.tags.Values()
	tags := make([]string, len(values))
	for i, v := range values {
		tags[len(values)-1-i] = v.(string)
	}
	return tags
}

// reconcile closes levels beyond the common prefix with needed, innermost
// first, then opens the missing levels outermost first.
func (l *listStack) reconcile(needed []string) []string {
	current := l.open()
	common := 0
	for common < len(current) && common < len(needed) && current[common] == needed[common] {
		common++
	}

	var html []string
	for l.tags.Size() > common {
		tag, _ := l.tags.Pop()
		html = append(html, "</"+tag.(string)+">")
	}
	for _, tag := range needed[common:] {
		l.tags.Push(tag)
		html = append(html, "<"+tag+">")
	}
	return html
}

func (l *listStack) closeAll() []string {
	return l.reconcile(nil)
}

func listTags(markers string) []string {
	tags := make([]string, 0, len(markers))
	for _, marker := range markers {
		tags = append(tags, listMarkerTags[marker])
	}
	return tags
}

// renderList converts a run of marker-prefixed lines into nested lists.
func (s *state) renderList(lines []string) string {
	stack := newListStack()
	var html []string

	for _, line := range lines {
		match := listLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		markers, text := match[1], match[2]
		html = append(html, stack.reconcile(listTags(markers))...)

		content := s.compileInline(strings.TrimSpace(text))
		switch markers[len(markers)-1] {
		case ':', ';':
			html = append(html, content)
		default:
			html = append(html, "<li>"+content+"</li>")
		}
	}

	html = append(html, stack.closeAll()...)
	return strings.Join(html, "\n")
}
