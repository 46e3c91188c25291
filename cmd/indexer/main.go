// Command indexer scans a directory and publishes it to the item feed, so
// every searcher consuming the topic indexes the same tree.
//
// Usage:
//
//	go run ./cmd/indexer -root DIR [-config configs/docsearch.yaml]
//	go run ./cmd/indexer -clear
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/source"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	root := flag.String("root", "", "directory to publish, overrides indexer.root")
	clearIndex := flag.Bool("clear", false, "publish a clear event instead of a tree")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	if *clearIndex {
		if err := producer.Publish(ctx, consumer.ClearEvent()); err != nil {
			slog.Error("failed to publish clear event", "error", err)
			os.Exit(1)
		}
		slog.Info("clear event published", "topic", cfg.Kafka.ItemsTopic)
		return
	}

	if cfg.Indexer.Root == "" {
		fmt.Fprintln(os.Stderr, "no root: pass -root or set indexer.root")
		os.Exit(2)
	}
	start := time.Now()
	tree, err := source.Scan(ctx, cfg.Indexer.Root, source.OptionsFrom(cfg.Indexer))
	if err != nil {
		slog.Error("scan failed", "root", cfg.Indexer.Root, "error", err)
		os.Exit(1)
	}
	event := consumer.TreeEvent(tree)
	err = resilience.Retry(ctx, "publish tree", resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Second}, func(ctx context.Context) error {
		return producer.Publish(ctx, event)
	})
	if err != nil {
		slog.Error("failed to publish tree", "root", tree.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("tree published",
		"root", tree.Path,
		"items", item.Count(tree),
		"topic", cfg.Kafka.ItemsTopic,
		"elapsed", time.Since(start),
	)
}
