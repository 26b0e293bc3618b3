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
	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup("crawler", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan, err := config.LoadCrawlPlan(cfg.CrawlPlanPath)
	if err != nil {
		slog.Error("load_crawl_plan_failed", "path", cfg.CrawlPlanPath, "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.NewCrawler(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("crawl_run_starting",
		"terms", len(plan.MeshTerms),
		"start_year", plan.StartYear,
		"end_year", plan.EndYear,
	)
	if err := app.CrawlUC.Run(ctx, plan); err != nil {
		slog.Error("crawl_run_failed", "error", err)
		os.Exit(1)
	}

	logRunSummary(ctx, app)
}

func logRunSummary(ctx context.Context, app *bootstrap.Crawler) {
	jobs, err := app.Jobs.ListJobs(ctx)
	if err != nil {
		slog.Warn("crawl_summary_unavailable", "error", err)
		return
	}

	var completed, failed, searched, published, stored int
	for _, job := range jobs {
		switch job.Status {
		case domain.CrawlComplete:
			completed++
		case domain.CrawlFailed:
			failed++
		}
		searched += job.Searched
		published += job.Published
		stored += job.Stored
	}

	slog.Info("crawl_run_finished",
		"jobs", len(jobs),
		"completed", completed,
		"failed", failed,
		"searched", searched,
		"published", published,
		"stored", stored,
	)
}
