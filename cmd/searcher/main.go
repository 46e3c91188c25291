// Command searcher serves full-text and quick-open search over a directory
// tree.
//
// At startup it scans indexer.root (if set), then answers HTTP queries. With
// kafka.enabled it also applies item events from the feed, and with
// cache.useRedis it shares cached results through Redis.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/docsearch.yaml] [-root DIR]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/source"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and DS_* env vars when empty)")
	root := flag.String("root", "", "directory to index, overrides indexer.root")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Indexer.Root = *root
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "root", cfg.Indexer.Root)

	if err := run(cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	store := index.NewStore()
	ix := indexer.New(store, cfg.Indexer, m)
	exec := executor.New(store, cfg.Search, m)

	var scan handler.SourceFunc
	if cfg.Indexer.Root != "" {
		opts := source.OptionsFrom(cfg.Indexer)
		scan = func(ctx context.Context) (*item.Folder, error) {
			return source.Scan(ctx, cfg.Indexer.Root, opts)
		}
		if err := initialIndex(ctx, ix, scan); err != nil {
			slog.Error("initial index failed, starting empty", "root", cfg.Indexer.Root, "error", err)
		}
	} else {
		slog.Warn("no index root configured, searches return nothing until items arrive")
	}

	var redisClient *pkgredis.Client
	if cfg.Cache.Enabled && cfg.Cache.UseRedis {
		var client *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", resilience.RetryConfig{MaxAttempts: 3}, func(ctx context.Context) error {
			var err error
			client, err = pkgredis.NewClient(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, using local cache only", "addr", cfg.Redis.Addr, "error", err)
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}
	var queryCache *cache.QueryCache
	if cfg.Cache.Enabled {
		qc, err := cache.New(store, redisClient, cfg.Cache, m)
		if err != nil {
			return fmt.Errorf("creating query cache: %w", err)
		}
		queryCache = qc
		slog.Info("search cache enabled",
			"local_size", cfg.Cache.LocalSize,
			"redis", redisClient != nil,
			"ttl", cfg.Cache.TTL,
		)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		stats := store.Stats()
		if stats.Roots == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no root indexed"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d entries", stats.Entries)}
	})
	if redisClient != nil {
		checker.Register("redis", health.PingCheck(redisClient.Ping))
	}

	mux := http.NewServeMux()
	handler.New(exec, ix, queryCache, scan, cfg.Search).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Timeout(cfg.Server.WriteTimeout),
			middleware.Metrics(m),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Kafka.Enabled {
		feed := kafka.NewConsumer(cfg.Kafka, consumer.HandleMessage(ix, m))
		g.Go(func() error {
			return feed.Start(gctx)
		})
		slog.Info("item feed consumer started",
			"topic", cfg.Kafka.ItemsTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func initialIndex(ctx context.Context, ix *indexer.Indexer, scan handler.SourceFunc) error {
	start := time.Now()
	root, err := scan(ctx)
	if err != nil {
		return err
	}
	if err := ix.IndexFolder(ctx, root); err != nil {
		return err
	}
	slog.Info("initial index built",
		"items", item.Count(root),
		"elapsed", time.Since(start),
	)
	return nil
}
