package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/core/ports"
)

const (
	defaultSearchPageSize = 500
	defaultFetchBatchSize = 200
)

// CrawlUseCase walks an acquisition plan term by term and year by year,
// paging identifier searches against the literature source and publishing
// fetch batches for the ingest workers.
type CrawlUseCase struct {
	source ports.LiteratureSource
	queue  ports.FetchQueue
	jobs   ports.CrawlJobRepository
}

func NewCrawlUseCase(
	source ports.LiteratureSource,
	queue ports.FetchQueue,
	jobs ports.CrawlJobRepository,
) *CrawlUseCase {
	return &CrawlUseCase{
		source: source,
		queue:  queue,
		jobs:   jobs,
	}
}

// Run executes the plan. A failing term-and-year job is marked failed and
// skipped so one bad timeframe cannot sink the whole run; only context
// cancellation stops the walk.
func (uc *CrawlUseCase) Run(ctx context.Context, plan domain.CrawlPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	pageSize := plan.PageSize
	if pageSize <= 0 {
		pageSize = defaultSearchPageSize
	}
	batchSize := plan.FetchBatchSize
	if batchSize <= 0 {
		batchSize = defaultFetchBatchSize
	}

	for _, term := range plan.MeshTerms {
		for year := plan.StartYear; year <= plan.EndYear; year++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := uc.runJob(ctx, term, year, pageSize, batchSize); err != nil {
				if ctx.Err() != nil {
					return err
				}
				slog.Error("crawl_job_failed", "term", term, "year", year, "error", err)
			}
		}
	}
	return nil
}

func (uc *CrawlUseCase) runJob(ctx context.Context, term string, year, pageSize, batchSize int) error {
	now := time.Now().UTC()
	job := &domain.CrawlJob{
		ID:        uuid.NewString(),
		Term:      term,
		Year:      year,
		Status:    domain.CrawlPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.jobs.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("create crawl job: %w", err)
	}
	if err := uc.jobs.MarkJobStatus(ctx, job.ID, domain.CrawlRunning, ""); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}

	searched, published, err := uc.pageAndPublish(ctx, job.ID, term, year, pageSize, batchSize)
	if err != nil {
		if markErr := uc.jobs.MarkJobStatus(ctx, job.ID, domain.CrawlFailed, err.Error()); markErr != nil {
			return fmt.Errorf("%w; mark job failed: %v", err, markErr)
		}
		return err
	}

	slog.Info("crawl_job_published",
		"term", term,
		"year", year,
		"searched", searched,
		"published", published,
	)
	if err := uc.jobs.MarkJobStatus(ctx, job.ID, domain.CrawlComplete, ""); err != nil {
		return fmt.Errorf("mark job complete: %w", err)
	}
	return nil
}

// pageAndPublish pages one term-and-year search to exhaustion. Identifiers
// accumulate into fetch batches which are published as soon as they fill;
// the trailing partial batch goes out after the last page.
func (uc *CrawlUseCase) pageAndPublish(
	ctx context.Context,
	jobID, term string,
	year, pageSize, batchSize int,
) (searched, published int, err error) {
	var pending []string

	publishChunk := func(ids []string) error {
		batch := domain.FetchBatch{
			JobID:       jobID,
			PMIDs:       append([]string(nil), ids...),
			PublishedAt: time.Now().UTC(),
		}
		if err := uc.queue.PublishFetchBatch(ctx, batch); err != nil {
			return fmt.Errorf("publish fetch batch: %w", err)
		}
		published += len(ids)
		return nil
	}

	total := -1
	for {
		page, err := uc.source.SearchIDs(ctx, term, year, searched, pageSize)
		if err != nil {
			return searched, published, fmt.Errorf("search ids: %w", err)
		}
		if total < 0 {
			total = page.Total
		}
		if len(page.IDs) == 0 {
			break
		}

		searched += len(page.IDs)
		pending = append(pending, page.IDs...)
		for len(pending) >= batchSize {
			if err := publishChunk(pending[:batchSize]); err != nil {
				return searched, published, err
			}
			pending = pending[batchSize:]
		}

		if err := uc.jobs.UpdateJobProgress(ctx, jobID, searched, published); err != nil {
			return searched, published, fmt.Errorf("update job progress: %w", err)
		}
		if searched >= total {
			break
		}
	}

	if len(pending) > 0 {
		if err := publishChunk(pending); err != nil {
			return searched, published, err
		}
	}
	if err := uc.jobs.UpdateJobProgress(ctx, jobID, searched, published); err != nil {
		return searched, published, fmt.Errorf("update job progress: %w", err)
	}
	return searched, published, nil
}
