package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFor(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"book.md", KindStructured},
		{"BOOK.MD", KindStructured},
		{"notes.markdown", KindStructured},
		{"dir.md/book.txt", KindPlain},
		{"book.mkd", KindPlain},
		{"book.txt", KindPlain},
		{"README", KindPlain},
		{"", KindPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindFor(tt.name))
		})
	}
}

func TestSplitLinesPlain(t *testing.T) {
	content := "  first  \n\n\t\nsecond\r\n   \nthird"
	assert.Equal(t, []string{"first", "second", "third"}, SplitLines(content, KindPlain))
}

func TestSplitLinesPlainKeepsMarkup(t *testing.T) {
	assert.Equal(t, []string{"# not a heading **here**"}, SplitLines("# not a heading **here**\n", KindPlain))
}

func TestSplitLinesKeepsOrderOfNonBlankSegments(t *testing.T) {
	segments := []string{"a", " ", "b", "", "c c", "\t", "d"}
	content := strings.Join(segments, "\n")

	var want []string
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			want = append(want, strings.TrimSpace(s))
		}
	}
	assert.Equal(t, want, SplitLines(content, KindPlain))
}

func TestSplitLinesEmptyInput(t *testing.T) {
	for _, content := range []string{"", "\n", "\n\n  \n"} {
		got := SplitLines(content, KindPlain)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestSplitLinesStructuredDocument(t *testing.T) {
	got := SplitLines("# Title\n\nHello **world**\n", KindStructured)
	assert.Equal(t, []string{"Title", "Hello world"}, got)
}

func TestSplitLinesDropsLinesEmptiedByMarkup(t *testing.T) {
	got := SplitLines("#\n##   \ntext\n** **\n", KindStructured)
	assert.Equal(t, []string{"text"}, got)
}

func TestSplitLinesNormalizesStructuredToNFC(t *testing.T) {
	got := SplitLines("**cafe\u0301**\n", KindStructured)
	assert.Equal(t, []string{"caf\u00e9"}, got)
}

func TestSplitLinesKeepsPlainBytes(t *testing.T) {
	got := SplitLines("first\nCafe\u0301 au lait\n", KindPlain)
	assert.Equal(t, []string{"first", "Cafe\u0301 au lait"}, got)
	assert.Len(t, got[1], 14)
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"## **Hi** [a](http://x)", "Hi a"},
		{"# Title", "Title"},
		{"###### Deep", "Deep"},
		{"## Closed ##", "Closed"},
		{"####### seven is not a heading", "####### seven is not a heading"},
		{"#hashtag", "#hashtag"},
		{"**bold** and __bold__", "bold and bold"},
		{"*italic* and _italic_", "italic and italic"},
		{"~~gone~~ kept", "gone kept"},
		{"see [the docs](https://example.com/a_b) now", "see the docs now"},
		{"![alt text](img.png)", "alt text"},
		{"run `go **test**` please", "run go **test** please"},
		{"``double`` fence", "double fence"},
		{"snake_case_name stays", "snake_case_name stays"},
		{"2 * 3 * 4", "2 * 3 * 4"},
		{"***both***", "both"},
		{"unclosed **bold", "unclosed **bold"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}

func TestStripMarkupIsPerLine(t *testing.T) {
	got := SplitLines("**open\nclose**\n", KindStructured)
	assert.Equal(t, []string{"**open", "close**"}, got)
}
