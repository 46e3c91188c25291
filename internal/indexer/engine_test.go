package indexer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleTree() *item.Folder {
	return item.NewFolder("/vault", epoch,
		item.NewDocument("/vault/notes.md", epoch,
			item.WithType("markdown"),
			item.WithContent("machine learning notes"),
		),
		item.NewDocument("/vault/photo.png", epoch, item.WithType("image")),
		item.NewFolder("/vault/archive", epoch,
			item.NewDocument("/vault/archive/old.txt", epoch, item.WithContent("legacy text")),
			item.NewFolder("/vault/archive/empty", epoch),
		),
	)
}

func newTestIndexer(t *testing.T, workers int) (*Indexer, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return New(index.NewStore(), config.IndexerConfig{Workers: workers}, m), m
}

func TestIndexFolderIndexesWholeTree(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			ix, m := newTestIndexer(t, workers)
			root := sampleTree()

			require.NoError(t, ix.IndexFolder(context.Background(), root))

			store := ix.Store()
			assert.Equal(t, item.Count(root), store.Len())
			assert.True(t, store.HasRoot())
			assert.Equal(t, 6.0, testutil.ToFloat64(m.ItemsIndexedTotal))
			assert.Equal(t, 6.0, testutil.ToFloat64(m.IndexEntries))

			store.View(func(tx *index.Tx) {
				notes := item.NewID("/vault/notes.md")
				assert.Equal(t, map[string]struct{}{notes: {}}, tx.Candidates(tokenizer.Tokenize("machine")))
				assert.Equal(t, map[string]struct{}{notes: {}}, tx.Candidates(tokenizer.Tokenize("notes.md")))
				assert.Equal(t, map[string]struct{}{item.NewID("/vault/archive"): {}}, tx.Candidates(tokenizer.Tokenize("archive")))

				e, ok := tx.Entry(item.NewID("/vault/photo.png"))
				require.True(t, ok)
				assert.Empty(t, e.Content)
				assert.False(t, e.IsContainer)
			})
		})
	}
}

func TestIndexItemReplacesEntry(t *testing.T) {
	ix, _ := newTestIndexer(t, 1)
	ix.IndexItem(item.NewDocument("/a.txt", epoch, item.WithContent("first draft")))
	ix.IndexItem(item.NewDocument("/a.txt", epoch, item.WithContent("second version")))

	store := ix.Store()
	assert.Equal(t, 1, store.Len())
	store.View(func(tx *index.Tx) {
		e, ok := tx.Entry(item.NewID("/a.txt"))
		require.True(t, ok)
		assert.Equal(t, "second version", e.Content)
		assert.Empty(t, tx.Candidates(tokenizer.Tokenize("draft")))
	})
	assert.False(t, store.HasRoot(), "single items never mark a root")
}

func TestIndexItemNilIsIgnored(t *testing.T) {
	ix, _ := newTestIndexer(t, 1)
	ix.IndexItem(nil)
	assert.Zero(t, ix.Store().Len())
	assert.NoError(t, ix.IndexFolder(context.Background(), nil))
}

func TestIndexFolderCancelledLeavesStoreUntouched(t *testing.T) {
	ix, _ := newTestIndexer(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ix.IndexFolder(ctx, sampleTree())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ix.Store().Len())
	assert.False(t, ix.Store().HasRoot())
}

func TestClear(t *testing.T) {
	ix, m := newTestIndexer(t, 2)
	require.NoError(t, ix.IndexFolder(context.Background(), sampleTree()))

	ix.Clear()

	assert.Zero(t, ix.Store().Len())
	assert.False(t, ix.Store().HasRoot())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexClearsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IndexEntries))
}

func TestReindexFolderIsIdempotent(t *testing.T) {
	ix, _ := newTestIndexer(t, 3)
	require.NoError(t, ix.IndexFolder(context.Background(), sampleTree()))
	require.NoError(t, ix.IndexFolder(context.Background(), sampleTree()))

	assert.Equal(t, 6, ix.Store().Len())
	assert.Equal(t, 1, ix.Store().Stats().Roots)
}

func TestIndexFolderPublishesEntriesWithRoot(t *testing.T) {
	ix, _ := newTestIndexer(t, 2)
	before := ix.Store().Generation()

	require.NoError(t, ix.IndexFolder(context.Background(), sampleTree()))

	assert.Equal(t, before+1, ix.Store().Generation(), "entries and root land in one mutation")
	assert.True(t, ix.Store().HasRoot())
}

func TestReplaceFolder(t *testing.T) {
	ix, m := newTestIndexer(t, 2)
	require.NoError(t, ix.IndexFolder(context.Background(), sampleTree()))

	fresh := item.NewFolder("/other", epoch,
		item.NewDocument("/other/readme.md", epoch, item.WithContent("fresh start")),
	)
	require.NoError(t, ix.ReplaceFolder(context.Background(), fresh))

	stats := ix.Store().Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.Roots)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IndexEntries))
	ix.Store().View(func(tx *index.Tx) {
		assert.Empty(t, tx.Candidates(tokenizer.Tokenize("machine")))
		_, ok := tx.Entry(item.NewID("/other/readme.md"))
		assert.True(t, ok)
	})
}

func TestReplaceFolderCancelledKeepsIndex(t *testing.T) {
	ix, _ := newTestIndexer(t, 2)
	require.NoError(t, ix.IndexFolder(context.Background(), sampleTree()))
	before := ix.Store().Stats()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ix.ReplaceFolder(ctx, item.NewFolder("/other", epoch))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, ix.Store().Stats())
}
