// Command analytics consumes solve events from Kafka, aggregates them in
// memory and serves the running statistics at GET /api/v1/analytics. When
// PostgreSQL is enabled it also snapshots the statistics periodically.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/analytics/snapshot"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/postgres"
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
	slog.Info("starting analytics service", "port", cfg.Analytics.Port, "topic", cfg.Kafka.Topics.SolveEvents)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("analytics service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New(nil)

	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SolveEvents, analytics.HandleEvent(aggregator))
	consumer.OnResult = func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.EventsConsumedTotal.WithLabelValues(status).Inc()
	}
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("solve event consumer stopped", "error", err)
		}
	}()

	checker := health.NewChecker(0)
	var snapshots analytics.SnapshotLister
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		store := snapshot.NewStore(db, snapshot.DefaultTable)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if latest, err := store.LatestSnapshot(ctx); err != nil {
			slog.Warn("could not read latest snapshot", "error", err)
		} else if latest != nil {
			slog.Info("previous snapshot found", "total_solves", latest.TotalSolves, "captured_at", latest.CapturedAt)
		}
		store.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
		snapshots = store
		checker.Register("postgres", health.PingCheck(db.Ping))
	}

	h := analytics.NewHandler(aggregator, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", h.Snapshots)
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}
