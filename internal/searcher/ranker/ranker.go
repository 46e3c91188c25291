// Package ranker scores index entries against a query and orders results.
package ranker

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/highlight"
)

const (
	FilenameHit = 10
	PhraseHit   = 5
	TokenHit    = 1
)

// Signals selects which scoring surfaces are active.
type Signals struct {
	Filenames bool
	Content   bool
	Highlight highlight.Options
}

// Score computes the relevance of e for query. The returned matches are the
// phrase occurrences found in the content, each worth PhraseHit.
func Score(e *index.Entry, query string, queryTokens tokenizer.Set, sig Signals) (int, []highlight.Match) {
	score := 0
	if sig.Filenames && strings.Contains(strings.ToLower(e.Name), strings.ToLower(query)) {
		score += FilenameHit
	}
	var matches []highlight.Match
	if sig.Content && e.Content != "" {
		matches = highlight.Extract(e.Content, query, sig.Highlight)
		score += PhraseHit * len(matches)
	}
	for term := range queryTokens {
		if e.Tokens.Has(term) {
			score += TokenHit
		}
	}
	return score, matches
}

// Ranked is the sortable view of a result.
type Ranked interface {
	RankScore() int
	RankKey() (name, path, id string)
}

// Sort orders results by score descending. Equal scores fall back to name
// (case-insensitive), then path, then ID, so output is deterministic.
func Sort[T Ranked](results []T) {
	sort.Slice(results, func(i, j int) bool {
		si, sj := results[i].RankScore(), results[j].RankScore()
		if si != sj {
			return si > sj
		}
		ni, pi, idi := results[i].RankKey()
		nj, pj, idj := results[j].RankKey()
		li, lj := strings.ToLower(ni), strings.ToLower(nj)
		if li != lj {
			return li < lj
		}
		if pi != pj {
			return pi < pj
		}
		return idi < idj
	})
}
