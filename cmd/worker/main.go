package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/tasktrack/pkg/config"
	"github.com/felixgeelhaar/tasktrack/pkg/observability"
)

// Version is set during build
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, Version)).
		With("component", "worker")
	logger.Info("starting tasktrack worker", "env", cfg.AppEnv)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	if container.DBConn == nil {
		logger.Warn("memory backend: this worker only sees its own outbox")
	}

	if err := container.StartOutboxProcessor(ctx); err != nil {
		return fmt.Errorf("failed to start outbox processor: %w", err)
	}
	processor := container.OutboxProcessor

	pc := container.ProcessorConfig()
	logger.Info("outbox processor started",
		"poll_interval", pc.PollInterval,
		"batch_size", pc.BatchSize,
		"max_retries", pc.MaxRetries,
	)

	go runEvery(ctx, cfg.OutboxCleanupInterval, func() {
		cleanOutbox(ctx, container.OutboxRepo, cfg.OutboxRetentionDays, container.Metrics, logger)
	})
	go runEvery(ctx, cfg.OutboxStatsInterval, func() {
		logStats(ctx, processor, container.OutboxRepo, container.Metrics, logger)
	})

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(processor, container.Health),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func cleanOutbox(ctx context.Context, repo outbox.Repository, retentionDays int, metrics observability.Metrics, logger *slog.Logger) {
	deleted, err := observability.TimeOperationResult(ctx, logger, metrics, "outbox_cleanup", func() (int64, error) {
		return repo.DeleteOld(ctx, retentionDays)
	})
	if err != nil {
		logger.Error("outbox cleanup failed", "error", err)
		return
	}
	metrics.Counter(observability.MetricOutboxCleaned, deleted)
	if deleted > 0 {
		logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", retentionDays)
	}
}

func logStats(ctx context.Context, processor *outbox.Processor, repo outbox.Repository, metrics observability.Metrics, logger *slog.Logger) {
	pending, err := repo.CountPending(ctx)
	if err != nil {
		logger.Warn("failed to count pending outbox messages", "error", err)
	} else {
		metrics.Gauge(observability.MetricOutboxPending, float64(pending))
	}

	stats := processor.GetStats()
	logger.Info("outbox stats",
		"running", stats.IsRunning,
		"pending", pending,
		"published", stats.PublishedCount,
		"failed", stats.FailedCount,
		"dead", stats.DeadCount,
		"lag_seconds", stats.LagSeconds,
	)
}

func healthMux(processor *outbox.Processor, health *observability.HealthRegistry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.GetStats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		report := health.GetOverallHealth(checkCtx)
		writeJSON(w, report.HTTPStatus(), report)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
