package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/docrank/docrank/internal/analytics"
	"github.com/docrank/docrank/internal/document"
	"github.com/docrank/docrank/internal/postings"
	"github.com/docrank/docrank/internal/searcher/cache"
	"github.com/docrank/docrank/internal/searcher/handler"
	"github.com/docrank/docrank/internal/searcher/processor"
	"github.com/docrank/docrank/internal/tokenizer"
	"github.com/docrank/docrank/pkg/config"
	"github.com/docrank/docrank/pkg/health"
	"github.com/docrank/docrank/pkg/kafka"
	"github.com/docrank/docrank/pkg/logger"
	"github.com/docrank/docrank/pkg/metrics"
	"github.com/docrank/docrank/pkg/middleware"
	pkgpostgres "github.com/docrank/docrank/pkg/postgres"
	pkgredis "github.com/docrank/docrank/pkg/redis"
	"github.com/docrank/docrank/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

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

	analyzer := tokenizer.NewAnalyzer()
	proc := processor.New(store, collection, analyzer, cfg.Searcher.UnionFallback, m)

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis, m)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	collector := analytics.NewCollector(
		kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents),
		10000,
		m,
	)
	collector.Start(ctx)
	defer collector.Close()

	if queryCache != nil {
		invalidateConsumer := kafka.NewConsumer(
			cfg.Kafka,
			cfg.Kafka.Topics.CacheInvalidate,
			func(ctx context.Context, key, value []byte) error {
				return queryCache.Invalidate(ctx)
			},
		)
		go func() {
			if err := invalidateConsumer.Start(ctx); err != nil {
				slog.Error("cache invalidation consumer error", "error", err)
			}
		}()
	}

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pg.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(proc, collection, queryCache, collector, cfg.Searcher.DefaultLimit, cfg.Searcher.MaxResults, m)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
