package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "  \n\t ", []string{}},
		{"lowercases", "Machine LEARNING", []string{"learning", "machine"}},
		{"collapses duplicates", "go Go GO gopher", []string{"go", "gopher"}},
		{"splits newlines", "first\nsecond\r\nthird", []string{"first", "second", "third"}},
		{"trims edge punctuation", "(hello), world!", []string{"hello", "world"}},
		{"keeps interior punctuation", "notes.md isn't", []string{"isn't", "notes.md"}},
		{"drops pure punctuation", "-- ... !!", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input).Sorted())
		})
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	inputs := []string{
		"The quick, brown fox. Jumps!",
		"report-2024.final.PDF  (draft)",
		"«quoted» — dashes – and ‘curly’ marks",
	}
	for _, input := range inputs {
		once := Tokenize(input)
		assert.Equal(t, once, Tokenize(Join(once)), input)
	}
}

func TestSetHas(t *testing.T) {
	s := Tokenize("alpha beta")
	assert.True(t, s.Has("alpha"))
	assert.False(t, s.Has("gamma"))
}
