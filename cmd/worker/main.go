package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yhchiang/medrag/internal/bootstrap"
	"github.com/yhchiang/medrag/internal/config"
	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/observability/logging"
	"github.com/yhchiang/medrag/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeFetchBatch(ctx, func(handlerCtx context.Context, batch domain.FetchBatch) error {
		if !batch.PublishedAt.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(batch.PublishedAt))
		}

		workerMetrics.StartBatch()
		start := time.Now()

		batchCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		stored, err := app.IngestUC.IngestBatch(batchCtx, batch)

		workerMetrics.FinishBatch("worker", time.Since(start), err)
		workerMetrics.AddStoredArticles("worker", stored)
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
