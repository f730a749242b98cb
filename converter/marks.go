package converter

import "regexp"

var (
	strongEmPattern = regexp.MustCompile(`'''''(.*?)'''''`)
	strongPattern   = regexp.MustCompile(`'''(.*?)'''`)
	emPattern       = regexp.MustCompile(`''(.*?)''`)
)

// compileEmphasis converts quote runs into strong and em elements, longest
// run first. Inner text is compiled recursively.
func compileEmphasis(text string) string {
	text = replaceEmphasis(text, strongEmPattern, "<strong><em>", "</em></strong>")
	text = replaceEmphasis(text, strongPattern, "<strong>", "</strong>")
	return replaceEmphasis(text, emPattern, "<em>", "</em>")
}

func replaceEmphasis(text string, pattern *regexp.Regexp, open, close string) string {
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		inner := pattern.FindStringSubmatch(match)[1]
		return open + compileEmphasis(inner) + close
	})
}
