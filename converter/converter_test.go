package converter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newTestConverter(t testing.TB, cfg Config) *Converter {
	t.Helper()

	conv, err := New(cfg)
	require.NoError(t, err)

	return conv
}

func convertString(t testing.TB, cfg Config, source string) Result {
	t.Helper()

	result, err := newTestConverter(t, cfg).Convert(source)
	require.NoError(t, err)
	return result
}

func parseHTML(t testing.TB, fragment string) *html.Node {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc
}

func queryAll(n *html.Node, selector string) []*html.Node {
	return cascadia.MustCompile(selector).MatchAll(n)
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func TestBoldAndItalic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "wikimark.converter")
	defer teardown()

	result := convertString(t, Config{}, "'''bold''' and ''italic''")
	assert.Equal(t, "<p><strong>bold</strong> and <em>italic</em></p>", result.HTML)
	assert.Empty(t, result.Warnings)
}

func TestBoldItalicNesting(t *testing.T) {
	result := convertString(t, Config{}, "'''''both''''' and '''bold ''inner'' text'''")
	assert.Equal(t, "<p><strong><em>both</em></strong> and <strong>bold <em>inner</em> text</strong></p>", result.HTML)
}

func TestInternalLinkUsesDefaultResolver(t *testing.T) {
	result := convertString(t, Config{}, "[[Article:Dog|Dogs]]")
	assert.Equal(t, `<p><a href="/goto/Article%3ADog">Dogs</a></p>`, result.HTML)
}

func TestInternalLinkVariants(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"default label", "[[Main Page]]", `<p><a href="/goto/Main%20Page">Main Page</a></p>`},
		{"fragment", "[[Page#Some section|go]]", `<p><a href="/goto/Page#Some%20section">go</a></p>`},
		{"fragment only", "[[#Top|up]]", `<p><a href="#Top">up</a></p>`},
		{"label emphasis", "[[Page|''it'']]", `<p><a href="/goto/Page"><em>it</em></a></p>`},
		{"leading colon", "[[:File:a.png]]", `<p><a href="/goto/File%3Aa.png">File:a.png</a></p>`},
		{"unreserved kept", "[[Rock'n(roll)!]]", `<p><a href="/goto/Rock&#39;n(roll)!">Rock'n(roll)!</a></p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertString(t, Config{}, tt.source).HTML)
		})
	}
}

func TestExternalLinks(t *testing.T) {
	result := convertString(t, Config{}, "[https://example.com/?a=1&b=2 the '''site'''] and [mailto:me@example.com]")
	assert.Equal(t,
		`<p><a href="https://example.com/?a=1&amp;b=2" target="_blank" rel="noopener noreferrer">the <strong>site</strong></a>`+
			` and <a href="mailto:me@example.com" target="_blank" rel="noopener noreferrer">mailto:me@example.com</a></p>`,
		result.HTML,
	)
}

func TestLinkLabelsKeepNestedMarkup(t *testing.T) {
	textTemplates := Config{Templates: TemplateRules{Default: TemplateText}}

	tests := []struct {
		name   string
		cfg    Config
		source string
		want   string
	}{
		{"literal template in internal label", textTemplates, "[[Dog|{{nick}}]]",
			`<p><a href="/goto/Dog">{{nick}}</a></p>`},
		{"literal template in external label", textTemplates, "[http://x {{nick}}]",
			`<p><a href="http://x" target="_blank" rel="noopener noreferrer">{{nick}}</a></p>`},
		{"empty template in label", Config{}, "[[Dog|{{}}]]",
			`<p><a href="/goto/Dog">{{}}</a></p>`},
		{"external link in internal label", Config{}, "[[Page|[http://x.com X]]]",
			`<p><a href="/goto/Page"><a href="http://x.com" target="_blank" rel="noopener noreferrer">X</a></a></p>`},
		{"literal template as image alt", textTemplates, "[[File:a.png|{{nick}}]]",
			`<p><img src="/uploads/a.png" alt="{{nick}}" /></p>`},
		{"diagnostic template as image alt", Config{}, "[[File:a.png|{{nick}}]]",
			`<p><img src="/uploads/a.png" alt="nick" /></p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertString(t, tt.cfg, tt.source).HTML)
		})
	}
}

func TestBracketWithoutSchemeIsNotExternal(t *testing.T) {
	result := convertString(t, Config{}, "[not a link]")
	assert.Equal(t, "<p>[not a link]</p>", result.HTML)
}

func TestImages(t *testing.T) {
	result := convertString(t, Config{}, "[[File:Cat photo.png|thumb|right|200px|A cat]]")
	assert.Equal(t,
		`<p><img src="/uploads/Cat%20photo.png" alt="A cat" class="thumb float-right" width="200" /></p>`,
		result.HTML,
	)

	result = convertString(t, Config{}, "[[image:x.jpg|100x50px]]")
	assert.Equal(t, `<p><img src="/uploads/x.jpg" alt="image:x.jpg" width="100" height="50" /></p>`, result.HTML)

	result = convertString(t, Config{ImageNamespaces: []string{"Datei"}}, "[[Datei:a.png]] [[File:b.png]]")
	assert.Equal(t, `<p><img src="/uploads/a.png" alt="Datei:a.png" /> <a href="/goto/File%3Ab.png">File:b.png</a></p>`, result.HTML)
}

func TestHeadings(t *testing.T) {
	result := convertString(t, Config{}, "= One =\n== Two ''it'' ==\n====== Six ======\n=== Mismatch ==")
	assert.Equal(t, "<h1>One</h1>\n<h2>Two <em>it</em></h2>\n<h6>Six</h6>\n<p>=== Mismatch ==</p>", result.HTML)

	result = convertString(t, Config{HeadingOffset: 2}, "== Two ==\n===== Five =====")
	assert.Equal(t, "<h4>Two</h4>\n<h6>Five</h6>", result.HTML)
}

func TestHorizontalRule(t *testing.T) {
	result := convertString(t, Config{}, "a\n----\n------  \nb")
	assert.Equal(t, "<p>a</p>\n<hr/>\n<hr/>\n<p>b</p>", result.HTML)
}

func TestParagraphJoining(t *testing.T) {
	result := convertString(t, Config{}, "first\nsecond\n\nthird\n== H ==\nfourth")
	assert.Equal(t, "<p>first second</p>\n\n<p>third</p>\n<h2>H</h2>\n<p>fourth</p>", result.HTML)
}

func TestPreformattedBlock(t *testing.T) {
	result := convertString(t, Config{}, " code <b>'''x'''</b>\n\n more\n\nafter")
	assert.Equal(t, "<pre>code &lt;b&gt;&#39;&#39;&#39;x&#39;&#39;&#39;&lt;/b&gt;\n\nmore\n</pre>\n<p>after</p>", result.HTML)
}

func TestPreformattedBlockKeepsTrailingBlankLines(t *testing.T) {
	result := convertString(t, Config{}, " a\n\n\nb")
	assert.Equal(t, "<pre>a\n\n</pre>\n<p>b</p>", result.HTML)

	result = convertString(t, Config{}, " a\n  \n")
	assert.Equal(t, "<pre>a\n\n</pre>", result.HTML)
}

func TestWhitespaceOnlyLineIsBlank(t *testing.T) {
	result := convertString(t, Config{}, "a\n   \nb")
	assert.Equal(t, "<p>a</p>\n\n<p>b</p>", result.HTML)
}

func TestProtectedSpansStayLiteral(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"nowiki", "<nowiki>'''x''' [[y]]</nowiki>", "<p>&#39;&#39;&#39;x&#39;&#39;&#39; [[y]]</p>"},
		{"pre", "<pre>'''x'''\n{{t}}</pre>", "<pre>&#39;&#39;&#39;x&#39;&#39;&#39;\n{{t}}</pre>"},
		{"code", "use <code>''a'' < b</code> here", "<p>use <code>&#39;&#39;a&#39;&#39; &lt; b</code> here</p>"},
		{"nowiki inside pre", "<pre><nowiki><b></nowiki></pre>", "<pre>&lt;b&gt;</pre>"},
		{"case insensitive", "<NOWIKI>''a''</NOWIKI>", "<p>&#39;&#39;a&#39;&#39;</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertString(t, Config{}, tt.source)
			assert.Equal(t, tt.want, result.HTML)
			assert.False(t, strings.ContainsAny(result.HTML, "\uE000\uE001\uE002\uE003"))
		})
	}
}

func TestUnterminatedSpanIsParsedAsMarkup(t *testing.T) {
	result := convertString(t, Config{}, "<nowiki>'''x'''")
	assert.Equal(t, "<p><nowiki><strong>x</strong></p>", result.HTML)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningUnterminatedSpan, result.Warnings[0].Type)
	assert.Equal(t, "nowiki", result.Warnings[0].Construct)
}

func TestCommentsAndEmptyNowikiRemoved(t *testing.T) {
	result := convertString(t, Config{}, "a<!-- hidden\nstill hidden -->b ''<nowiki/>''x")
	assert.Equal(t, "<p>ab <em></em>x</p>", result.HTML)
}

func TestReservedRunesStripped(t *testing.T) {
	result := convertString(t, Config{}, "a\uE000nowiki-0\uE001b\uE0020\uE003")
	assert.Equal(t, "<p>anowiki-0b0</p>", result.HTML)
}

func TestCRLFInput(t *testing.T) {
	result := convertString(t, Config{}, "== H ==\r\nline one\r\nline two\r\n")
	assert.Equal(t, "<h2>H</h2>\n<p>line one line two</p>\n", result.HTML)
}

func TestTwoRowTable(t *testing.T) {
	source := "{| class=\"wikitable\"\n|-\n! Name !! Value\n|-\n| a || [[B]]\n|}"
	result := convertString(t, Config{}, source)

	doc := parseHTML(t, result.HTML)
	tables := queryAll(doc, "table.wikitable")
	require.Len(t, tables, 1)

	rows := queryAll(doc, "tr")
	require.Len(t, rows, 2)
	assert.Len(t, queryAll(rows[0], "th"), 2)
	assert.Len(t, queryAll(rows[0], "td"), 0)
	assert.Len(t, queryAll(rows[1], "td"), 2)

	links := queryAll(rows[1], "td a")
	require.Len(t, links, 1)
	assert.Equal(t, "/goto/B", attrValue(links[0], "href"))
}

func TestTableOutputShape(t *testing.T) {
	source := "{|\n|+ Caption\n|- class=\"odd\"\n| one\ncontinued\n| two\n|}\nafter"
	result := convertString(t, Config{}, source)
	assert.Equal(t,
		"<table>\n<caption>Caption</caption>\n<tr>\n<td>one continued</td>\n<td>two</td>\n</tr>\n</table>\n<p>after</p>",
		result.HTML,
	)
}

func TestTableWidthWarning(t *testing.T) {
	result := convertString(t, Config{MaxTableCols: 2}, "{|\n|-\n| a || b || c\n|}")
	assert.Len(t, queryAll(parseHTML(t, result.HTML), "td"), 3)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningTableWidth, result.Warnings[0].Type)
}

func TestUnclosedTableRunsToEnd(t *testing.T) {
	result := convertString(t, Config{}, "{|\n|-\n| a\n\n== not a heading ==")
	assert.Equal(t, "<table>\n<tr>\n<td>a == not a heading ==</td>\n</tr>\n</table>", result.HTML)
}

func TestNestedLists(t *testing.T) {
	result := convertString(t, Config{}, "* a\n** b\n*# c\n* d\n\ntext")
	assert.Equal(t,
		"<ul>\n<li>a</li>\n<ul>\n<li>b</li>\n</ul>\n<ol>\n<li>c</li>\n</ol>\n<li>d</li>\n</ul>\n\n<p>text</p>",
		result.HTML,
	)
}

func TestDefinitionList(t *testing.T) {
	result := convertString(t, Config{}, "; term\n: ''def''")
	assert.Equal(t, "<dt>\nterm\n</dt>\n<dd>\n<em>def</em>\n</dd>", result.HTML)
}

func TestFootnotesMatchMarkers(t *testing.T) {
	source := "Alpha<ref>first</ref> beta<ref group=\"x\">second [[Page]]</ref>.\n\n== Notes ==\n<references />"
	result := convertString(t, Config{}, source)

	doc := parseHTML(t, result.HTML)
	markers := queryAll(doc, "sup.mw-ref > a")
	items := queryAll(doc, "ol.references > li")
	require.Len(t, markers, 2)
	require.Len(t, items, 2)

	for i := range items {
		n := i + 1
		assert.Equal(t, fmt.Sprintf("#ref-%d", n), attrValue(markers[i], "href"))
		assert.Equal(t, fmt.Sprintf("ref-link-%d", n), attrValue(markers[i], "id"))
		assert.Equal(t, fmt.Sprintf("[%d]", n), textContent(markers[i]))
		assert.Equal(t, fmt.Sprintf("ref-%d", n), attrValue(items[i], "id"))
	}
	assert.Equal(t, "first", textContent(items[0]))
	assert.Len(t, queryAll(items[1], "a[href='/goto/Page']"), 1)
}

func TestNamedReferencesShareNumber(t *testing.T) {
	source := "a<ref name=\"src\">Source</ref> b<ref name=src/> c<ref name=\"src\" /> d<ref>other</ref>\n<references/>"
	result := convertString(t, Config{}, source)

	doc := parseHTML(t, result.HTML)
	markers := queryAll(doc, "sup.mw-ref > a")
	require.Len(t, markers, 4)
	assert.Equal(t, []string{"ref-link-1", "ref-link-1-2", "ref-link-1-3", "ref-link-2"}, []string{
		attrValue(markers[0], "id"),
		attrValue(markers[1], "id"),
		attrValue(markers[2], "id"),
		attrValue(markers[3], "id"),
	})
	assert.Len(t, queryAll(doc, "ol.references > li"), 2)
	require.Len(t, result.Footnotes, 2)
	assert.Equal(t, "src", result.Footnotes[0].Name)
}

func TestReflistTemplateRendersReferences(t *testing.T) {
	result := convertString(t, Config{}, "x<ref>n</ref>\n{{Reflist}}")
	assert.Equal(t,
		"<p>x<sup class=\"mw-ref\"><a href=\"#ref-1\" id=\"ref-link-1\">[1]</a></sup></p>\n"+
			"<ol class=\"references\"><li id=\"ref-1\">n</li></ol>",
		result.HTML,
	)
}

func TestReferencesWithoutFootnotes(t *testing.T) {
	result := convertString(t, Config{}, "<references/>")
	assert.Equal(t, `<p class="references-empty">No references.</p>`, result.HTML)

	result = convertString(t, Config{EmptyReferencesText: "Sem referências."}, "{{reflist}}")
	assert.Equal(t, `<p class="references-empty">Sem referências.</p>`, result.HTML)
}

func TestReferencesInsideParagraphCloseIt(t *testing.T) {
	result := convertString(t, Config{}, "x {{reflist}} y")
	assert.Equal(t, "<p>x</p>\n<p class=\"references-empty\">No references.</p>\n<p>y</p>", result.HTML)

	result = convertString(t, Config{}, "a<ref>n</ref> <references/> b")
	assert.Equal(t,
		"<p>a<sup class=\"mw-ref\"><a href=\"#ref-1\" id=\"ref-link-1\">[1]</a></sup></p>\n"+
			"<ol class=\"references\"><li id=\"ref-1\">n</li></ol>\n"+
			"<p>b</p>",
		result.HTML,
	)
}

func TestFootnotesWithoutListAreNotRendered(t *testing.T) {
	result := convertString(t, Config{}, "a<ref>hidden</ref>")
	assert.NotContains(t, result.HTML, "hidden")
	assert.NotContains(t, result.HTML, "references")
	require.Len(t, result.Footnotes, 1)
	assert.Equal(t, "hidden", result.Footnotes[0].Body)
}

func TestEmptyUnnamedReferenceDropped(t *testing.T) {
	result := convertString(t, Config{}, "a<ref/>b")
	assert.Equal(t, "<p>ab</p>", result.HTML)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningDroppedContent, result.Warnings[0].Type)
}

func TestFootnoteNumberingIsPerCall(t *testing.T) {
	conv := newTestConverter(t, Config{})
	for i := 0; i < 3; i++ {
		result, err := conv.Convert("a<ref>x</ref>")
		require.NoError(t, err)
		require.Len(t, result.Footnotes, 1)
		assert.Equal(t, 1, result.Footnotes[0].Number)
	}
}

func TestConcurrentConvert(t *testing.T) {
	conv := newTestConverter(t, Config{})
	source := "a<ref>one</ref> <nowiki>''b''</nowiki> {{t|1}}\n<references/>"
	want, err := conv.Convert(source)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := conv.Convert(source)
			assert.NoError(t, err)
			assert.Equal(t, want.HTML, got.HTML)
		}()
	}
	wg.Wait()
}

func TestConvertHonorsCancelledContext(t *testing.T) {
	conv := newTestConverter(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.ConvertWithContext(ctx, "text", ConvertOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompile(t *testing.T) {
	out, err := Compile("''x''", Config{})
	require.NoError(t, err)
	assert.Equal(t, "<p><em>x</em></p>", out)

	_, err = Compile("x", Config{MaxTableCols: -1})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSanitizerApplied(t *testing.T) {
	var seen string
	cfg := Config{
		Sanitize: true,
		Sanitizer: SanitizerFunc(func(in string) string {
			seen = in
			return strings.ReplaceAll(in, "<script>", "")
		}),
	}
	result := convertString(t, cfg, "<script>x")
	assert.Equal(t, "<p><script>x</p>", seen)
	assert.Equal(t, "<p>x</p>", result.HTML)
}

func TestSanitizeWithoutSanitizerWarns(t *testing.T) {
	result := convertString(t, Config{Sanitize: true}, "x")
	assert.Equal(t, "<p>x</p>", result.HTML)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningSanitizerMissing, result.Warnings[0].Type)
}

func TestEmptyInput(t *testing.T) {
	result := convertString(t, Config{}, "")
	assert.Equal(t, "", result.HTML)
	assert.Nil(t, result.Footnotes)
	assert.Nil(t, result.Warnings)
}
