package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yhchiang/medrag/internal/bootstrap"
	"github.com/yhchiang/medrag/internal/config"
	"github.com/yhchiang/medrag/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup("indexer", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewIndexer(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	summary, err := app.SnapshotUC.Build(ctx)
	if err != nil {
		slog.Error("snapshot_build_failed", "error", err)
		os.Exit(1)
	}

	slog.Info("indexer_finished",
		"source_articles", summary.SourceArticles,
		"clean_articles", summary.CleanArticles,
		"dropped_articles", summary.DroppedArticles,
		"dim", summary.Dim,
		"model", summary.Model,
		"dir", cfg.SnapshotDir,
	)
}
