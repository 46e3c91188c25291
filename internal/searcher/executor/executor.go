// Package executor answers queries against the index Store: it collects
// candidates from the postings, scores them, applies the filter, and returns
// ranked results with highlighted matches.
package executor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/highlight"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

const (
	OutcomeHit        = "hit"
	OutcomeZeroResult = "zero_result"
	OutcomeEmptyQuery = "empty_query"
	OutcomeNoRoot     = "no_root"
)

type Result struct {
	ItemID  string            `json:"item_id"`
	Item    item.Item         `json:"-"`
	Matches []highlight.Match `json:"matches"`
	Score   int               `json:"score"`
}

func (r Result) RankScore() int { return r.Score }

func (r Result) RankKey() (string, string, string) {
	meta := r.Item.Info()
	return meta.Name, meta.Path, r.ItemID
}

// Options tune a single query.
type Options struct {
	Filter filter.Filter
	// Limit truncates the ranked list; zero or negative returns everything.
	Limit int
}

type Executor struct {
	store   *index.Store
	cfg     config.SearchConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Executor reading from store. m may be nil.
func New(store *index.Store, cfg config.SearchConfig, m *metrics.Metrics) *Executor {
	return &Executor{
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) Store() *index.Store {
	return e.store
}

// Search runs query with filter f and returns every result, best first. It
// never fails: an empty query or an index with no root yields an empty list.
func (e *Executor) Search(ctx context.Context, query string, f filter.Filter) []Result {
	return e.SearchWithOptions(ctx, query, Options{Filter: f})
}

func (e *Executor) SearchWithOptions(ctx context.Context, query string, opts Options) []Result {
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "query-executor")

	if query == "" {
		e.metrics.ObserveSearch(OutcomeEmptyQuery, time.Since(start), 0)
		return []Result{}
	}

	results := []Result{}
	outcome := OutcomeZeroResult
	var candidates map[string]struct{}
	fallback := false

	e.store.View(func(tx *index.Tx) {
		if !tx.HasRoot() {
			outcome = OutcomeNoRoot
			return
		}
		queryTokens := tokenizer.Tokenize(query)
		candidates = tx.Candidates(queryTokens)
		if len(candidates) == 0 && e.cfg.FallbackScan {
			candidates = tx.AllIDs()
			fallback = true
		}

		sig := ranker.Signals{
			Filenames: opts.Filter.IncludeFilenames,
			Content:   opts.Filter.IncludeContent,
			Highlight: highlight.Options{
				Window:       e.window(),
				ResolveLines: e.cfg.ResolveLines,
			},
		}
		for id := range candidates {
			entry, ok := tx.Entry(id)
			if !ok {
				continue
			}
			score, matches := ranker.Score(entry, query, queryTokens, sig)
			if score <= 0 && len(matches) == 0 {
				continue
			}
			it, ok := tx.Item(id)
			if !ok || !opts.Filter.Allows(it) {
				continue
			}
			results = append(results, Result{
				ItemID:  id,
				Item:    it,
				Matches: matches,
				Score:   score,
			})
		}
	})

	if fallback {
		e.metrics.FallbackScan()
		log.Debug("no postings for query tokens, scanned every entry",
			"query", query,
			"entries", len(candidates),
		)
	}

	ranker.Sort(results)
	total := len(results)
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	if total > 0 {
		outcome = OutcomeHit
	}
	elapsed := time.Since(start)
	e.metrics.ObserveSearch(outcome, elapsed, len(results))
	log.Debug("query executed",
		"query", query,
		"outcome", outcome,
		"candidates", len(candidates),
		"fallback", fallback,
		"matched", total,
		"returned", len(results),
		"elapsed", elapsed,
	)
	return results
}

func (e *Executor) window() int {
	if e.cfg.ContextWindow > 0 {
		return e.cfg.ContextWindow
	}
	return highlight.DefaultWindow
}

// QuickHit is a fuzzy name match from Quick.
type QuickHit struct {
	ItemID string    `json:"item_id"`
	Item   item.Item `json:"-"`
	Score  int       `json:"score"`
}

// Quick fuzzy-matches query against the names of every indexed item, the
// way a quick-open palette does. It bypasses the postings entirely.
func (e *Executor) Quick(query string, limit int) []QuickHit {
	if strings.TrimSpace(query) == "" {
		return []QuickHit{}
	}
	var items []item.Item
	e.store.View(func(tx *index.Tx) {
		items = tx.Items()
	})
	matches := fuzzy.Search(query, items, func(it item.Item) string {
		return it.Info().Name
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	hits := make([]QuickHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, QuickHit{
			ItemID: m.Item.Info().ID,
			Item:   m.Item,
			Score:  m.Score,
		})
	}
	return hits
}
