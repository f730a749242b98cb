package converter

import (
	"strings"
	"testing"
)

const benchmarkInput = `== Heading ==

This is '''bold''' text with [https://example.com a link] and [[Main Page|home]].<ref>A note</ref>

* one
** two
# three

{| class="wikitable"
|-
! Name !! Value
|-
| A || 1
|-
| B || {{val|2}}
|}

 preformatted line
<syntaxhighlight lang="go">
func main() {}
</syntaxhighlight>

<references/>
`

func BenchmarkConvertWikitext(b *testing.B) {
	conv, err := New(Config{})
	if err != nil {
		b.Fatalf("failed to create converter: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := conv.Convert(benchmarkInput); err != nil {
			b.Fatalf("convert failed: %v", err)
		}
	}
}

func BenchmarkConvertLargeDocument(b *testing.B) {
	conv, err := New(Config{})
	if err != nil {
		b.Fatalf("failed to create converter: %v", err)
	}
	input := strings.Repeat(benchmarkInput, 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := conv.Convert(input); err != nil {
			b.Fatalf("convert failed: %v", err)
		}
	}
}
