package converter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntaxHighlightWithClasses(t *testing.T) {
	cfg := Config{Highlight: HighlightConfig{Classes: true}}
	result := convertString(t, cfg, "<syntaxhighlight lang=\"go\">\nif a < b {\n\tfmt.Println(a)\n}\n</syntaxhighlight>")

	assert.True(t, strings.HasPrefix(result.HTML, "<pre"), result.HTML)
	assert.Contains(t, result.HTML, `class="chroma"`)
	assert.Contains(t, result.HTML, "Println")
	assert.Contains(t, result.HTML, "&lt;")
	assert.NotContains(t, result.HTML, "<p>")
	assert.Empty(t, result.Warnings)
}

func TestSyntaxHighlightInlineStyles(t *testing.T) {
	result := convertString(t, Config{}, "<source lang=\"python\">print('x')</source>")

	assert.Contains(t, result.HTML, "style=")
	assert.NotContains(t, result.HTML, `class="chroma"`)
	assert.Contains(t, result.HTML, "print")
}

func TestSyntaxHighlightUnknownLanguage(t *testing.T) {
	result := convertString(t, Config{Highlight: HighlightConfig{Classes: true}}, "<syntaxhighlight lang=\"no-such-lang\">a <b> c</syntaxhighlight>")

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningHighlightFallback, result.Warnings[0].Type)
	assert.Contains(t, result.Warnings[0].Message, "no-such-lang")
	assert.Contains(t, result.HTML, "&lt;b&gt;")
}

func TestSyntaxHighlightWithoutLanguage(t *testing.T) {
	result := convertString(t, Config{Highlight: HighlightConfig{Classes: true}}, "<syntaxhighlight>'''x'''</syntaxhighlight>")

	assert.Empty(t, result.Warnings)
	assert.NotContains(t, result.HTML, "<strong>")
	assert.Contains(t, result.HTML, "&#39;&#39;&#39;x&#39;&#39;&#39;")
}
