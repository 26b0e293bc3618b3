package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/core/ports"
)

// IngestBatchUseCase is the worker side of the acquisition pipeline: it
// fetches one published PMID batch from the literature source, parses the
// records, and persists them.
type IngestBatchUseCase struct {
	source ports.LiteratureSource
	repo   ports.ArticleRepository
	jobs   ports.CrawlJobRepository
}

func NewIngestBatchUseCase(
	source ports.LiteratureSource,
	repo ports.ArticleRepository,
	jobs ports.CrawlJobRepository,
) *IngestBatchUseCase {
	return &IngestBatchUseCase{
		source: source,
		repo:   repo,
		jobs:   jobs,
	}
}

// IngestBatch processes one fetch batch end to end and returns the number
// of articles stored. Upserts are keyed by PMID, so redelivery of the same
// batch converges instead of duplicating articles.
func (uc *IngestBatchUseCase) IngestBatch(ctx context.Context, batch domain.FetchBatch) (int, error) {
	if len(batch.PMIDs) == 0 {
		return 0, nil
	}

	articles, err := uc.source.FetchArticles(ctx, batch.PMIDs)
	if err != nil {
		return 0, fmt.Errorf("fetch articles: %w", err)
	}

	stored, err := uc.repo.UpsertArticles(ctx, articles)
	if err != nil {
		return 0, fmt.Errorf("upsert articles: %w", err)
	}

	if batch.JobID != "" {
		if err := uc.jobs.AddStored(ctx, batch.JobID, stored); err != nil {
			return stored, fmt.Errorf("add stored count: %w", err)
		}
	}

	slog.Info("batch_ingested",
		"job_id", batch.JobID,
		"pmids", len(batch.PMIDs),
		"fetched", len(articles),
		"stored", stored,
	)
	return stored, nil
}
