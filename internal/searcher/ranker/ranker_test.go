package ranker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/highlight"
)

func entry(path, content string) *index.Entry {
	return index.Build(item.NewDocument(path, time.Now(), item.WithContent(content))).Entry
}

var both = Signals{Filenames: true, Content: true, Highlight: highlight.Options{Window: highlight.DefaultWindow}}

func TestScoreComponents(t *testing.T) {
	e := entry("/docs/Machine.md", "machine learning, machine vision")
	query := "machine"

	score, matches := Score(e, query, tokenizer.Tokenize(query), both)

	// filename substring + two phrase hits + one token overlap
	assert.Equal(t, FilenameHit+2*PhraseHit+TokenHit, score)
	require.Len(t, matches, 2)
}

func TestScoreSurfacesDisabled(t *testing.T) {
	e := entry("/docs/machine.md", "machine learning")
	query := "machine"

	score, matches := Score(e, query, tokenizer.Tokenize(query), Signals{})

	assert.Equal(t, TokenHit, score, "token overlap still counts with both surfaces off")
	assert.Empty(t, matches)
}

func TestScoreNoSignal(t *testing.T) {
	e := entry("/docs/photo.png", "")
	score, matches := Score(e, "machine", tokenizer.Tokenize("machine"), both)
	assert.Zero(t, score)
	assert.Empty(t, matches)
}

type fake struct {
	score          int
	name, path, id string
}

func (f fake) RankScore() int                   { return f.score }
func (f fake) RankKey() (string, string, string) { return f.name, f.path, f.id }

func TestSortTieBreak(t *testing.T) {
	results := []fake{
		{1, "b.txt", "/x/b.txt", "3"},
		{5, "z.txt", "/z.txt", "1"},
		{1, "A.txt", "/y/a.txt", "2"},
		{1, "a.txt", "/x/a.txt", "4"},
		{1, "a.txt", "/x/a.txt", "0"},
	}

	Sort(results)

	var ids []string
	for _, r := range results {
		ids = append(ids, r.id)
	}
	assert.Equal(t, []string{"1", "0", "4", "2", "3"}, ids)
}
