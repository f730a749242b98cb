package converter

import (
	"strings"

	"golang.org/x/net/html"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// tagAttribute reads one attribute from a single start tag such as
// `<ref name="a"/>`. Keys are matched case-insensitively.
func tagAttribute(tag, key string) (string, bool) {
	if strings.HasSuffix(tag, "/>") {
		tag = strings.TrimSuffix(tag, "/>") + " />"
	}

	key = strings.ToLower(key)
	z := html.NewTokenizer(strings.NewReader(tag))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var name, value []byte
				name, value, hasAttr = z.TagAttr()
				if string(name) == key {
					return string(value), true
				}
			}
			return "", false
		}
	}
}

// plainText returns the text content of an HTML fragment with entities
// decoded.
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
