package tasks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentenceSplitter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "three sentences", input: "Update homepage. Add blog. Test.", want: []string{"Update homepage", "Add blog", "Test"}},
		{name: "empty", input: "", want: []string{}},
		{name: "only periods and spaces", input: " . .. ", want: []string{}},
		{name: "no trailing period", input: "Write tests", want: []string{"Write tests"}},
		{name: "naive split on abbreviations", input: "Ship v1.2 today.", want: []string{"Ship v1", "2 today"}},
		{name: "newlines trimmed", input: "One.\n  Two.\n", want: []string{"One", "Two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SentenceSplitter{}.Extract(tt.input))
		})
	}
}

func TestSentenceSplitterCustomDelimiter(t *testing.T) {
	got := SentenceSplitter{Delimiter: ";"}.Extract("a; b;; c.d")
	assert.Equal(t, []string{"a", "b", "c.d"}, got)
}

func TestExtractorFunc(t *testing.T) {
	var e Extractor = ExtractorFunc(strings.Fields)
	assert.Equal(t, []string{"a", "b"}, e.Extract("a b"))
}
