// Command jumbled serves the sub-anagram solver over HTTP.
//
// It builds the dictionary index once at startup from the configured word
// list (a file or a PostgreSQL table), then answers solve requests, caching
// results in Redis and publishing solve events to Kafka when those are
// enabled.
//
// Usage:
//
//	go run ./cmd/jumbled [-config configs/development.yaml]
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
	"time"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/solver"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/resilience"
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
	slog.Info("starting solver service", "port", cfg.Server.Port, "dictionary_source", cfg.Dictionary.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("solver service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("solver service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var db *postgres.Client
	if cfg.Postgres.Enabled {
		var err error
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
	}

	src, err := indexer.SourceFor(cfg.Dictionary, db)
	if err != nil {
		return err
	}
	idx, err := indexer.Build(ctx, src)
	if err != nil {
		return err
	}
	m.DictionaryWords.Set(float64(idx.WordCount()))
	m.DictionaryKeys.Set(float64(idx.KeyCount()))

	opts := handler.Options{
		Source:         src.Name(),
		MaxQueryLength: cfg.Solver.MaxQueryLength,
		Timeout:        cfg.Solver.Timeout,
		Metrics:        m,
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, from, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			opts.Cache = cache.New(redisClient, cfg.Redis.CacheTTL, idx.Fingerprint(), breaker)
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SolveEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
		collector.Start(ctx)
		defer collector.Close()
		opts.Tracker = collector
	}

	checker := health.NewChecker(0)
	checker.Register("dictionary", func(ctx context.Context) health.ComponentHealth {
		if idx.WordCount() == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "dictionary is empty"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d words", idx.WordCount())}
	})
	if redisClient != nil {
		ping := health.PingCheck(redisClient.Ping)
		queryCache := opts.Cache
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if !queryCache.Available() {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "cache circuit open"}
			}
			res := ping(ctx)
			if res.Status == health.StatusDown {
				res.Status = health.StatusDegraded
			}
			return res
		})
	}
	if db != nil {
		checker.Register("postgres", health.PingCheck(db.Ping))
	}

	h := handler.New(idx, solver.New(idx, solver.WithPruning(cfg.Solver.Prune)), opts)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/solve", h.Solve)
	mux.HandleFunc("GET /api/v1/dictionary", h.Dictionary)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		chain = middleware.RateLimit(ratelimit.New(ctx, cfg.Server.RateLimit, time.Minute))(chain)
	}
	chain = middleware.Metrics(m)(chain)
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

	slog.Info("solver service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}
