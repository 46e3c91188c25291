// Package handler exposes the search engine over HTTP: full search, fuzzy
// quick-open, index maintenance and cache administration.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/highlight"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
)

// SourceFunc produces the folder tree to index on rebuild.
type SourceFunc func(ctx context.Context) (*item.Folder, error)

type Handler struct {
	executor *executor.Executor
	indexer  *indexer.Indexer
	cache    *cache.QueryCache
	source   SourceFunc
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// New creates a Handler. queryCache and source may be nil; the cache and
// rebuild endpoints then answer 503.
func New(exec *executor.Executor, ix *indexer.Indexer, queryCache *cache.QueryCache, source SourceFunc, cfg config.SearchConfig) *Handler {
	return &Handler{
		executor: exec,
		indexer:  ix,
		cache:    queryCache,
		source:   source,
		cfg:      cfg,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/quick", h.Quick)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)
	mux.HandleFunc("POST /api/v1/index/clear", h.Clear)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// ItemView is the JSON form of an item.
type ItemView struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Kind     string    `json:"kind"`
	Type     string    `json:"type,omitempty"`
	Size     *int64    `json:"size,omitempty"`
	Modified time.Time `json:"modified"`
}

func viewOf(it item.Item) ItemView {
	meta := it.Info()
	v := ItemView{ID: meta.ID, Name: meta.Name, Path: meta.Path, Modified: meta.Modified}
	switch d := it.(type) {
	case *item.Folder:
		v.Kind = "folder"
	case *item.Document:
		v.Kind = "document"
		v.Type = d.Type
		v.Size = d.Size
	}
	return v
}

type ResultView struct {
	Item    ItemView          `json:"item"`
	Score   int               `json:"score"`
	Matches []highlight.Match `json:"matches"`
}

type SearchResponse struct {
	Query     string       `json:"query"`
	Results   []ResultView `json:"results"`
	Returned  int          `json:"returned"`
	CacheHit  bool         `json:"cache_hit"`
	LatencyMs int64        `json:"latency_ms"`
}

type QuickHitView struct {
	Item  ItemView `json:"item"`
	Score int      `json:"score"`
}

type QuickResponse struct {
	Query   string         `json:"query"`
	Results []QuickHitView `json:"results"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	params := r.URL.Query()
	query := params.Get("q")

	limit, err := h.parseLimit(params.Get("limit"), h.cfg.DefaultLimit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	f, err := filter.Parse(params)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	opts := executor.Options{Filter: f, Limit: limit}
	var (
		results  []executor.Result
		cacheHit bool
	)
	if h.cache != nil && query != "" {
		results, cacheHit = h.cache.GetOrCompute(ctx, query, opts, func() []executor.Result {
			return h.executor.SearchWithOptions(ctx, query, opts)
		})
	} else {
		results = h.executor.SearchWithOptions(ctx, query, opts)
	}

	resp := SearchResponse{
		Query:     query,
		Results:   make([]ResultView, 0, len(results)),
		Returned:  len(results),
		CacheHit:  cacheHit,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	for _, res := range results {
		matches := res.Matches
		if matches == nil {
			matches = []highlight.Match{}
		}
		resp.Results = append(resp.Results, ResultView{Item: viewOf(res.Item), Score: res.Score, Matches: matches})
	}

	logger.FromContext(ctx).Info("search completed",
		"query", query,
		"returned", resp.Returned,
		"cache_hit", cacheHit,
		"latency_ms", resp.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Quick(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")
	limit, err := h.parseLimit(params.Get("limit"), h.cfg.QuickLimit)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	hits := h.executor.Quick(query, limit)
	resp := QuickResponse{Query: query, Results: make([]QuickHitView, 0, len(hits))}
	for _, hit := range hits {
		resp.Results = append(resp.Results, QuickHitView{Item: viewOf(hit.Item), Score: hit.Score})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Rebuild rescans the source and swaps the result in for the current index.
// A failed or cancelled rebuild leaves the current index in place.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.source == nil {
		h.writeError(ctx, w, apperrors.New(apperrors.ErrIndexUnavailable, http.StatusServiceUnavailable, "no index root configured"))
		return
	}
	start := time.Now()
	ctx, span := tracing.Start(ctx, "index.rebuild")
	defer span.End()

	root, err := h.scan(ctx)
	if err == nil {
		_, indexSpan := tracing.Start(ctx, "index.replace")
		err = h.indexer.ReplaceFolder(ctx, root)
		indexSpan.End()
	}
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			err = apperrors.New(apperrors.ErrTimeout, http.StatusGatewayTimeout, "rebuild timed out")
		case errors.Is(err, context.Canceled):
			err = apperrors.New(apperrors.ErrCanceled, apperrors.StatusClientClosedRequest, "rebuild canceled")
		}
		h.writeError(ctx, w, fmt.Errorf("rebuilding index: %w", err))
		return
	}

	stats := h.indexer.Store().Stats()
	span.SetAttr("entries", stats.Entries)
	logger.FromContext(ctx).Info("index rebuilt",
		"root", root.Path,
		"entries", stats.Entries,
		"elapsed", time.Since(start),
	)
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) scan(ctx context.Context) (*item.Folder, error) {
	ctx, span := tracing.Start(ctx, "index.scan")
	defer span.End()
	root, err := h.source(ctx)
	if err == nil {
		span.SetAttr("items", item.Count(root))
	}
	return root, err
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.indexer.Clear()
	logger.FromContext(r.Context()).Info("index cleared")
	h.writeJSON(w, http.StatusOK, h.indexer.Store().Stats())
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.indexer.Store().Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	stats := h.cache.Stats()
	total := stats.Hits + stats.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":       stats.Hits,
		"misses":     stats.Misses,
		"total":      total,
		"local_keys": stats.LocalKeys,
		"redis":      stats.Redis,
		"hit_rate":   fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cache == nil {
		h.writeError(ctx, w, apperrors.New(apperrors.ErrCacheDisabled, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// parseLimit returns fallback for an empty value and caps the result at
// MaxResults.
func (h *Handler) parseLimit(raw string, fallback int) (int, error) {
	limit := fallback
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, apperrors.Invalidf("limit must be a positive integer")
		}
		limit = parsed
	}
	if h.cfg.MaxResults > 0 && limit > h.cfg.MaxResults {
		limit = h.cfg.MaxResults
	}
	return limit, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its status code. Messages of unclassified errors
// stay in the log.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := apperrors.Message(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("request failed", "status", status, "error", err)
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
