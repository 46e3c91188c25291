package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCaseInsensitive(t *testing.T) {
	matches := Extract("Machine learning and MACHINE vision", "machine", Options{Window: DefaultWindow})

	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Start)
	assert.Equal(t, 7, matches[0].End)
	assert.Equal(t, 21, matches[1].Start)
	for _, m := range matches {
		assert.Contains(t, strings.ToLower(m.Context), "machine")
		assert.Nil(t, m.Line)
	}
}

func TestExtractNonOverlapping(t *testing.T) {
	matches := Extract("aaaa", "aa", Options{})
	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Start)
	assert.Equal(t, 2, matches[1].Start)
}

func TestExtractContextWindowClamped(t *testing.T) {
	content := strings.Repeat("x", 150) + "needle" + strings.Repeat("y", 150)
	matches := Extract(content, "needle", Options{Window: DefaultWindow})

	require.Len(t, matches, 1)
	ctx := matches[0].Context
	assert.Equal(t, 206, len([]rune(ctx)))
	assert.True(t, strings.HasPrefix(ctx, strings.Repeat("x", 100)+"needle"))

	short := Extract("a needle here", "needle", Options{Window: DefaultWindow})
	require.Len(t, short, 1)
	assert.Equal(t, "a needle here", short[0].Context)
}

func TestExtractRuneOffsets(t *testing.T) {
	matches := Extract("Ünïcödé café CAFÉ", "café", Options{Window: 2})
	require.Len(t, matches, 2)
	assert.Equal(t, 8, matches[0].Start)
	assert.Equal(t, 12, matches[0].End)
	assert.Equal(t, "é café C", matches[0].Context)
	assert.Equal(t, 13, matches[1].Start)
}

func TestExtractPhrase(t *testing.T) {
	matches := Extract("deep learning notes, learning deep", "deep learning", Options{Window: 0})
	require.Len(t, matches, 1)
	assert.Equal(t, "deep learning", matches[0].Context)
}

func TestExtractResolveLines(t *testing.T) {
	content := "alpha\nbeta gamma\n\ngamma"
	matches := Extract(content, "gamma", Options{ResolveLines: true})

	require.Len(t, matches, 2)
	require.NotNil(t, matches[0].Line)
	require.NotNil(t, matches[1].Line)
	assert.Equal(t, 2, *matches[0].Line)
	assert.Equal(t, 4, *matches[1].Line)
}

func TestExtractDegenerate(t *testing.T) {
	assert.Nil(t, Extract("", "q", Options{}))
	assert.Nil(t, Extract("content", "", Options{}))
	assert.Nil(t, Extract("short", "much longer query", Options{}))
}
