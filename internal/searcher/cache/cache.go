// Package cache memoizes ranked search results. Entries live in an in-process
// LRU and, when a Redis client is supplied, in Redis with a TTL so several
// searcher replicas can share them.
//
// Keys embed the index Store generation, so any index or clear makes every
// earlier entry unreachable without an explicit purge.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/highlight"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

const keyPrefix = "docsearch:"

const defaultLocalSize = 256

// hit is the cached form of an executor.Result. Items are not stored; they
// are looked up again in the Store when the entry is served.
type hit struct {
	ItemID  string            `json:"item_id"`
	Score   int               `json:"score"`
	Matches []highlight.Match `json:"matches,omitempty"`
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	LocalKeys int   `json:"local_keys"`
	Redis     bool  `json:"redis"`
}

type QueryCache struct {
	store   *index.Store
	local   *lru.Cache[string, []hit]
	client  *pkgredis.Client
	breaker *resilience.CircuitBreaker
	cfg     config.CacheConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a QueryCache over store. client may be nil, in which case only
// the in-process LRU is used. m may be nil. Redis calls go through a circuit
// breaker and are bounded by cfg.RemoteTimeout.
func New(store *index.Store, client *pkgredis.Client, cfg config.CacheConfig, m *metrics.Metrics) (*QueryCache, error) {
	size := cfg.LocalSize
	if size <= 0 {
		size = defaultLocalSize
	}
	local, err := lru.New[string, []hit](size)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		// A missing key is a normal miss.
		IsFailure: func(err error) bool { return err != nil && !pkgredis.IsNilError(err) },
	})
	return &QueryCache{
		store:   store,
		local:   local,
		client:  client,
		breaker: breaker,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}, nil
}

// GetOrCompute serves query from the cache or runs computeFn, storing its
// result. Concurrent callers with the same key share one computation. The
// bool reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	opts executor.Options,
	computeFn func() []executor.Result,
) ([]executor.Result, bool) {
	key := c.buildKey(query, opts)
	if results, ok := c.get(ctx, key); ok {
		return results, true
	}
	val, _, shared := c.group.Do(key, func() (interface{}, error) {
		results := computeFn()
		c.set(ctx, key, results)
		return results, nil
	})
	results := val.([]executor.Result)
	if shared {
		c.logger.Debug("shared in-flight computation", "query", query)
	}
	return results, false
}

func (c *QueryCache) get(ctx context.Context, key string) ([]executor.Result, bool) {
	hits, ok := c.local.Get(key)
	if !ok && c.client != nil {
		hits, ok = c.getRemote(ctx, key)
		if ok {
			c.local.Add(key, hits)
		}
	}
	if !ok {
		c.misses.Add(1)
		c.metrics.CacheLookup(false)
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.CacheLookup(true)
	return c.materialize(hits), true
}

// remote runs fn against Redis under the breaker and RemoteTimeout.
func (c *QueryCache) remote(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, c.cfg.RemoteTimeout, op, fn)
	})
}

func (c *QueryCache) getRemote(ctx context.Context, key string) ([]hit, bool) {
	var data string
	err := c.remote(ctx, "redis get", func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key)
		return err
	})
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var hits []hit
	if err := json.Unmarshal([]byte(data), &hits); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return hits, true
}

func (c *QueryCache) set(ctx context.Context, key string, results []executor.Result) {
	hits := make([]hit, len(results))
	for i, r := range results {
		hits[i] = hit{ItemID: r.ItemID, Score: r.Score, Matches: r.Matches}
	}
	c.local.Add(key, hits)
	if c.client == nil {
		return
	}
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.remote(ctx, "redis set", func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.cfg.TTL)
	})
	if err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// materialize resolves cached IDs back to items. IDs that have left the
// Store since the entry was written are dropped.
func (c *QueryCache) materialize(hits []hit) []executor.Result {
	results := make([]executor.Result, 0, len(hits))
	c.store.View(func(tx *index.Tx) {
		for _, h := range hits {
			it, ok := tx.Item(h.ItemID)
			if !ok {
				continue
			}
			results = append(results, executor.Result{
				ItemID:  h.ItemID,
				Item:    it,
				Matches: h.Matches,
				Score:   h.Score,
			})
		}
	})
	return results
}

// Invalidate drops every local entry and, with Redis configured, every key
// under the cache prefix.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.local.Purge()
	if c.client == nil {
		c.logger.Info("cache invalidate", "redis", false)
		return nil
	}
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "redis", true, "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		LocalKeys: c.local.Len(),
		Redis:     c.client != nil,
	}
}

type keyParts struct {
	Query      string        `json:"q"`
	Filter     filter.Filter `json:"f"`
	Limit      int           `json:"l"`
	Generation uint64        `json:"g"`
}

func (c *QueryCache) buildKey(query string, opts executor.Options) string {
	f := opts.Filter
	if len(f.Types) > 0 {
		f.Types = append([]string(nil), f.Types...)
		sort.Strings(f.Types)
	}
	raw, _ := json.Marshal(keyParts{
		Query:      query,
		Filter:     f,
		Limit:      opts.Limit,
		Generation: c.store.Generation(),
	})
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
