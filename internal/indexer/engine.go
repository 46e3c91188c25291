// Package indexer turns item trees into index entries and merges them into
// the shared Store. It is the only writer of the Store.
package indexer

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

type Indexer struct {
	store   *index.Store
	cfg     config.IndexerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Indexer writing into store. m may be nil.
func New(store *index.Store, cfg config.IndexerConfig, m *metrics.Metrics) *Indexer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Indexer{
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
}

func (ix *Indexer) Store() *index.Store {
	return ix.store
}

// IndexItem indexes a single item, replacing any previous entry for its ID.
// Folders are indexed by name only; their children are not visited.
func (ix *Indexer) IndexItem(it item.Item) {
	if it == nil {
		return
	}
	st := index.Build(it)
	ix.store.Put(st)
	ix.metrics.Indexed(1, ix.store.Len())
	ix.logger.Debug("item indexed",
		"item_id", st.Entry.ItemID,
		"path", st.Entry.Path,
		"token_count", len(st.Entry.Tokens),
	)
}

// IndexFolder indexes folder and every descendant, then records folder as a
// root. Subtrees under folder are tokenized in parallel; the results are
// merged into the store in one batch together with the root. Cancelling ctx
// aborts between items, leaves the store untouched, and returns ctx.Err().
func (ix *Indexer) IndexFolder(ctx context.Context, folder *item.Folder) error {
	return ix.indexTree(ctx, folder, false)
}

// ReplaceFolder is IndexFolder for a full rebuild: the staged tree replaces
// the whole index in one step, so readers never see an empty or half-built
// index. A cancelled ctx keeps the current index.
func (ix *Indexer) ReplaceFolder(ctx context.Context, folder *item.Folder) error {
	return ix.indexTree(ctx, folder, true)
}

func (ix *Indexer) indexTree(ctx context.Context, folder *item.Folder, replace bool) error {
	if folder == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	batches := make([][]index.Staged, len(folder.Children))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)
	for i, child := range folder.Children {
		if child == nil {
			continue
		}
		g.Go(func() error {
			staged, err := stageTree(gctx, child)
			if err != nil {
				return err
			}
			batches[i] = staged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ix.logger.Warn("folder indexing aborted", "path", folder.Path, "replace", replace, "error", err)
		return err
	}

	total := 1
	for _, b := range batches {
		total += len(b)
	}
	merged := make([]index.Staged, 0, total)
	merged = append(merged, index.Build(folder))
	for _, b := range batches {
		merged = append(merged, b...)
	}
	if replace {
		ix.store.Replace(folder.ID, merged...)
	} else {
		ix.store.PutTree(folder.ID, merged...)
	}

	elapsed := time.Since(start)
	ix.metrics.Indexed(len(merged), ix.store.Len())
	ix.metrics.IndexBuilt(elapsed)
	ix.logger.Info("folder indexed",
		"path", folder.Path,
		"replace", replace,
		"items", len(merged),
		"entries", ix.store.Len(),
		"elapsed", elapsed,
	)
	return nil
}

// Clear removes everything from the index.
func (ix *Indexer) Clear() {
	ix.store.Clear()
	ix.metrics.Cleared()
	ix.logger.Info("index cleared")
}

// stageTree builds entries for root and all of its descendants.
func stageTree(ctx context.Context, root item.Item) ([]index.Staged, error) {
	var staged []index.Staged
	err := item.Walk(root, func(it item.Item) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		staged = append(staged, index.Build(it))
		return nil
	})
	return staged, err
}
