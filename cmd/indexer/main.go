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

	"github.com/docrank/docrank/internal/document"
	"github.com/docrank/docrank/internal/indexer"
	"github.com/docrank/docrank/internal/ingest"
	"github.com/docrank/docrank/internal/postings"
	"github.com/docrank/docrank/internal/tokenizer"
	"github.com/docrank/docrank/pkg/config"
	"github.com/docrank/docrank/pkg/kafka"
	"github.com/docrank/docrank/pkg/logger"
	"github.com/docrank/docrank/pkg/metrics"
	pkgpostgres "github.com/docrank/docrank/pkg/postgres"
	"github.com/docrank/docrank/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	rebuild := flag.Bool("rebuild", false, "rebuild the full index from the document collection before consuming")
	rebuildOnly := flag.Bool("rebuild-only", false, "rebuild the full index and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service", "rebuild", *rebuild || *rebuildOnly)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var pg *pkgpostgres.Client
	err = resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		var connErr error
		pg, connErr = pkgpostgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	collection, err := document.NewPostgresCollection(ctx, pg)
	if err != nil {
		slog.Error("failed to open document collection", "error", err)
		os.Exit(1)
	}
	store, err := postings.NewPostgresStore(ctx, pg)
	if err != nil {
		slog.Error("failed to open postings store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	builder := indexer.New(store, tokenizer.NewAnalyzer(), cfg.Indexer.BuildWorkers, m)

	invalidateProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate)
	defer invalidateProducer.Close()

	if *rebuild || *rebuildOnly {
		buildCtx, cancel := context.WithTimeout(ctx, cfg.Indexer.BuildTimeout)
		err := builder.Build(buildCtx, collection)
		cancel()
		if err != nil {
			slog.Error("index rebuild failed", "error", err)
			os.Exit(1)
		}
		event := ingest.CacheInvalidateEvent{Reason: "index-rebuild", OccurredAt: time.Now().UTC()}
		if err := invalidateProducer.Publish(ctx, kafka.Event{Key: "rebuild", Value: event}); err != nil {
			// Searchers keep serving stale cached results until TTL expiry.
			slog.Error("publishing cache invalidation failed", "error", err)
		}
		if *rebuildOnly {
			slog.Info("rebuild complete, exiting")
			return
		}
	}

	consumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.DocumentUpsert,
		ingest.HandleUpsert(builder, collection),
	)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("upsert consumer error", "error", err)
		os.Exit(1)
	}

	slog.Info("indexer service stopped")
}
