// Package metrics defines the Prometheus metric collectors used by the
// indexer, the query engine and the HTTP service, and exposes a handler for
// scraping. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	SearchResultsCount   prometheus.Histogram
	FallbackScansTotal   prometheus.Counter
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	ItemsIndexedTotal    prometheus.Counter
	IndexEntries         prometheus.Gauge
	IndexClearsTotal     prometheus.Counter
	IndexBuildDuration   prometheus.Histogram
	FeedEventsTotal      *prometheus.CounterVec
}

// New creates all collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in services and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docsearch_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_search_queries_total",
				Help: "Total search queries by outcome (hit, zero_result, empty_query, no_root).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		FallbackScansTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_search_fallback_scans_total",
				Help: "Queries whose tokens hit no postings and fell back to scanning every entry.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		ItemsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_items_indexed_total",
				Help: "Total items written to the index.",
			},
		),
		IndexEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_index_entries",
				Help: "Number of entries currently held by the index.",
			},
		),
		IndexClearsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_index_clears_total",
				Help: "Total full index clears.",
			},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_index_build_seconds",
				Help:    "Time to index a folder tree.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		FeedEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_feed_events_total",
				Help: "Item feed events by operation and status.",
			},
			[]string{"op", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.FallbackScansTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.ItemsIndexedTotal,
		m.IndexEntries,
		m.IndexClearsTotal,
		m.IndexBuildDuration,
		m.FeedEventsTotal,
	)

	return m
}

// ObserveSearch records one executed query.
func (m *Metrics) ObserveSearch(outcome string, elapsed time.Duration, results int) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	m.SearchLatency.Observe(elapsed.Seconds())
	m.SearchResultsCount.Observe(float64(results))
}

// FallbackScan records a query that degraded to a full scan.
func (m *Metrics) FallbackScan() {
	if m == nil {
		return
	}
	m.FallbackScansTotal.Inc()
}

// Indexed records n items written and the resulting index size.
func (m *Metrics) Indexed(n int, entries int) {
	if m == nil {
		return
	}
	m.ItemsIndexedTotal.Add(float64(n))
	m.IndexEntries.Set(float64(entries))
}

// IndexBuilt records the time spent indexing a folder tree.
func (m *Metrics) IndexBuilt(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IndexBuildDuration.Observe(elapsed.Seconds())
}

// Cleared records a full index clear.
func (m *Metrics) Cleared() {
	if m == nil {
		return
	}
	m.IndexClearsTotal.Inc()
	m.IndexEntries.Set(0)
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}

// FeedEvent records a processed change feed event.
func (m *Metrics) FeedEvent(op, status string) {
	if m == nil {
		return
	}
	m.FeedEventsTotal.WithLabelValues(op, status).Inc()
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
