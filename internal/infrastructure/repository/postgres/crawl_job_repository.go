package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yhchiang/medrag/internal/core/domain"
)

type CrawlJobRepository struct {
	db *sql.DB
}

func NewCrawlJobRepository(db *sql.DB) *CrawlJobRepository {
	return &CrawlJobRepository{db: db}
}

func (r *CrawlJobRepository) CreateJob(ctx context.Context, job *domain.CrawlJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO crawl_jobs (id, term, year, status, searched, published, stored, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, job.ID, job.Term, job.Year, string(job.Status), job.Searched, job.Published, job.Stored, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create crawl job: %w", err)
	}
	return nil
}

func (r *CrawlJobRepository) UpdateJobProgress(ctx context.Context, id string, searched, published int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE crawl_jobs
SET searched = $2, published = $3, updated_at = $4
WHERE id = $1
`, id, searched, published, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return requireJobRow(result, id)
}

func (r *CrawlJobRepository) MarkJobStatus(ctx context.Context, id string, status domain.CrawlJobStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE crawl_jobs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark job status: %w", err)
	}
	return requireJobRow(result, id)
}

// AddStored raises the stored counter by delta. Increments come from
// concurrent workers, so the addition happens in SQL, not read-modify-write.
func (r *CrawlJobRepository) AddStored(ctx context.Context, id string, delta int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE crawl_jobs
SET stored = stored + $2, updated_at = $3
WHERE id = $1
`, id, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add stored count: %w", err)
	}
	return requireJobRow(result, id)
}

// ListJobs returns every job in creation order, for run summaries.
func (r *CrawlJobRepository) ListJobs(ctx context.Context) ([]domain.CrawlJob, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, term, year, status, searched, published, stored, error_message, created_at, updated_at
FROM crawl_jobs
ORDER BY created_at
`)
	if err != nil {
		return nil, fmt.Errorf("list crawl jobs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CrawlJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crawl jobs: %w", err)
	}
	return out, nil
}

func requireJobRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("crawl job not found: id=%s", id)
	}
	return nil
}

type jobScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row jobScanner) (domain.CrawlJob, error) {
	var job domain.CrawlJob
	var status string
	err := row.Scan(
		&job.ID,
		&job.Term,
		&job.Year,
		&status,
		&job.Searched,
		&job.Published,
		&job.Stored,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return domain.CrawlJob{}, fmt.Errorf("scan crawl job: %w", err)
	}
	job.Status = domain.CrawlJobStatus(status)
	return job, nil
}
