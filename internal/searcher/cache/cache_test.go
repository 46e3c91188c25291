package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	indexer  *indexer.Indexer
	executor *executor.Executor
	cache    *QueryCache
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	store := index.NewStore()
	cfg := config.Default()
	qc, err := New(store, nil, cfg.Cache, m)
	require.NoError(t, err)

	f := &fixture{
		indexer:  indexer.New(store, cfg.Indexer, m),
		executor: executor.New(store, cfg.Search, m),
		cache:    qc,
		metrics:  m,
	}
	require.NoError(t, f.indexer.IndexFolder(context.Background(), item.NewFolder("/vault", epoch,
		item.NewDocument("/vault/notes.md", epoch, item.WithType("markdown"), item.WithContent("machine learning notes")),
		item.NewDocument("/vault/todo.txt", epoch, item.WithType("text"), item.WithContent("buy a machine")),
	)))
	return f
}

func (f *fixture) search(query string, opts executor.Options, calls *atomic.Int32) ([]executor.Result, bool) {
	return f.cache.GetOrCompute(context.Background(), query, opts, func() []executor.Result {
		calls.Add(1)
		return f.executor.SearchWithOptions(context.Background(), query, opts)
	})
}

func TestGetOrComputeCachesResults(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	opts := executor.Options{Filter: filter.Default()}

	first, cached := f.search("machine", opts, &calls)
	assert.False(t, cached)
	require.Len(t, first, 2)

	second, cached := f.search("machine", opts, &calls)
	assert.True(t, cached)
	assert.Equal(t, int32(1), calls.Load())

	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].ItemID, second[i].ItemID)
		assert.Equal(t, first[i].Score, second[i].Score)
		assert.Equal(t, first[i].Matches, second[i].Matches)
		assert.Same(t, first[i].Item, second[i].Item)
	}

	stats := f.cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.LocalKeys)
	assert.False(t, stats.Redis)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheHitsTotal))
}

func TestKeyDependsOnFilterAndLimit(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32

	f.search("machine", executor.Options{Filter: filter.Default()}, &calls)
	f.search("machine", executor.Options{Filter: filter.Default(), Limit: 1}, &calls)

	typed := filter.Default()
	typed.Types = []string{"text", "markdown"}
	f.search("machine", executor.Options{Filter: typed}, &calls)

	reordered := filter.Default()
	reordered.Types = []string{"markdown", "text"}
	_, cached := f.search("machine", executor.Options{Filter: reordered}, &calls)

	assert.True(t, cached, "type order does not change the key")
	assert.Equal(t, int32(3), calls.Load())
}

func TestIndexChangeInvalidatesImplicitly(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	opts := executor.Options{Filter: filter.Default()}

	before, _ := f.search("machine", opts, &calls)
	require.Len(t, before, 2)

	f.indexer.IndexItem(item.NewDocument("/vault/todo.txt", epoch, item.WithType("text"), item.WithContent("buy milk")))

	after, cached := f.search("machine", opts, &calls)
	assert.False(t, cached)
	require.Len(t, after, 1)
	assert.Equal(t, item.NewID("/vault/notes.md"), after[0].ItemID)

	f.indexer.Clear()
	cleared, cached := f.search("machine", opts, &calls)
	assert.False(t, cached)
	assert.Empty(t, cleared)
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	opts := executor.Options{Filter: filter.Default()}

	f.search("machine", opts, &calls)
	require.NoError(t, f.cache.Invalidate(context.Background()))
	assert.Zero(t, f.cache.Stats().LocalKeys)

	_, cached := f.search("machine", opts, &calls)
	assert.False(t, cached)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMaterializeDropsMissingItems(t *testing.T) {
	f := newFixture(t)
	hits := []hit{
		{ItemID: item.NewID("/vault/notes.md"), Score: 6},
		{ItemID: "gone", Score: 3},
	}

	results := f.cache.materialize(hits)

	require.Len(t, results, 1)
	assert.Equal(t, item.NewID("/vault/notes.md"), results[0].ItemID)
	assert.Equal(t, "notes.md", results[0].Item.Info().Name)
}

func TestConcurrentLookups(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	opts := executor.Options{Filter: filter.Default()}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, _ := f.search("machine", opts, &calls)
			assert.Len(t, results, 2)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	stats := f.cache.Stats()
	assert.Equal(t, int64(16), stats.Hits+stats.Misses)
}
