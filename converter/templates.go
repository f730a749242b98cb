package converter

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// expandTemplates replaces every outermost balanced {{...}} span with its
// evaluation. Evaluated output is spliced in and never rescanned. An
// unbalanced opening brace leaves the rest of the text untouched.
func (s *state) expandTemplates(text string, stash *inlineStash) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	positions := arraystack.New()
	var out strings.Builder
	last := 0

	for i := 0; i+1 < len(text); {
		switch {
		case text[i] == '{' && text[i+1] == '{':
			positions.Push(i)
			i += 2
		case text[i] == '}' && text[i+1] == '}' && !positions.Empty():
			top, _ := positions.Pop()
			i += 2
			if positions.Empty() {
				start := top.(int)
				out.WriteString(text[last:start])
				out.WriteString(s.evaluateTemplate(text[start+2:i-2], stash))
				last = i
			}
		default:
			i++
		}
	}

	out.WriteString(text[last:])
	return out.String()
}

// evaluateTemplate resolves the invocation between the outer braces.
func (s *state) evaluateTemplate(raw string, stash *inlineStash) string {
	segments := splitTopLevel(raw, '|')
	call := TemplateCall{
		SourcePath: s.options.SourcePath,
		Name:       strings.TrimSpace(s.expandTemplates(segments[0], nil)),
		Named:      make(map[string]string),
	}

	for _, segment := range segments[1:] {
		if key, value, ok := splitNamedArgument(segment); ok {
			key = strings.TrimSpace(s.expandTemplates(key, nil))
			if _, exists := call.Named[key]; !exists {
				call.NamedOrder = append(call.NamedOrder, key)
			}
			call.Named[key] = strings.TrimSpace(s.expandTemplates(value, nil))
			continue
		}
		call.Positional = append(call.Positional, strings.TrimSpace(s.expandTemplates(segment, nil)))
	}

	if call.Name == "" {
		return keepLiteral(raw, stash)
	}
	if len(segments) == 1 && strings.EqualFold(call.Name, "reflist") {
		return s.referencesToken()
	}

	if html, ok := s.resolveTemplate(call); ok {
		return html
	}

	switch s.config.Templates.ModeFor(call.Name) {
	case TemplateText:
		return keepLiteral(raw, stash)
	case TemplateStrip:
		s.addWarning(
			WarningTemplateFallback,
			"template",
			fmt.Sprintf("template %q removed", call.Name),
		)
		return ""
	default:
		return renderTemplateDiagnostic(call)
	}
}

// keepLiteral renders the invocation as escaped text, braces included.
func keepLiteral(raw string, stash *inlineStash) string {
	literal := escapeHTML("{{" + raw + "}}")
	if stash == nil {
		return literal
	}
	return stash.put(literal)
}

// renderTemplateDiagnostic lists the name and arguments in a labeled span.
func renderTemplateDiagnostic(call TemplateCall) string {
	var sb strings.Builder
	sb.WriteString(`<span class="tpl">`)
	sb.WriteString(escapeHTML(call.Name))

	bits := make([]string, 0, len(call.Positional)+len(call.NamedOrder))
	for _, value := range call.Positional {
		bits = append(bits, escapeHTML(value))
	}
	for _, key := range call.NamedOrder {
		bits = append(bits, escapeHTML(key)+"="+escapeHTML(call.Named[key]))
	}
	if len(bits) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(bits, ", "))
	}

	sb.WriteString("</span>")
	return sb.String()
}

// splitTopLevel splits raw on sep outside of {{...}} and [[...]] nesting.
func splitTopLevel(raw string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0

	for i := 0; i < len(raw); i++ {
		if i+1 < len(raw) {
			pair := raw[i : i+2]
			switch pair {
			case "{{", "[[":
				depth++
				i++
				continue
			case "}}", "]]":
				if depth > 0 {
					depth--
				}
				i++
				continue
			}
		}
		if raw[i] == sep && depth == 0 {
			parts = append(parts, raw[start:i])
			start = i + 1
		}
	}

	return append(parts, raw[start:])
}

// splitNamedArgument splits a parameter at its first top-level '='.
func splitNamedArgument(segment string) (string, string, bool) {
	parts := splitTopLevel(segment, '=')
	if len(parts) < 2 {
		return "", "", false
	}
	key := parts[0]
	return key, segment[len(key)+1:], true
}
