package ports

import (
	"context"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// ArticleRepository persists crawled articles. Upserts are keyed by PMID
// with later writes winning, which is how repeated crawls deduplicate.
type ArticleRepository interface {
	UpsertArticles(ctx context.Context, articles []domain.Article) (int, error)
	ListClean(ctx context.Context, minAbstractChars int) ([]domain.Article, error)
	CountArticles(ctx context.Context) (int, error)
}

// CrawlJobRepository tracks per term-and-year acquisition progress.
type CrawlJobRepository interface {
	CreateJob(ctx context.Context, job *domain.CrawlJob) error
	UpdateJobProgress(ctx context.Context, id string, searched, published int) error
	MarkJobStatus(ctx context.Context, id string, status domain.CrawlJobStatus, errMessage string) error
	AddStored(ctx context.Context, id string, delta int) error
}

// FetchQueue moves PMID batches from the crawler to the ingest workers.
type FetchQueue interface {
	PublishFetchBatch(ctx context.Context, batch domain.FetchBatch) error
	SubscribeFetchBatch(ctx context.Context, handler func(context.Context, domain.FetchBatch) error) error
}

// LiteratureSource is the external bibliographic API boundary.
type LiteratureSource interface {
	SearchIDs(ctx context.Context, term string, year, retStart, retMax int) (domain.IDPage, error)
	FetchArticles(ctx context.Context, pmids []string) ([]domain.Article, error)
}

// SnapshotStore persists the corpus snapshot the serving process loads.
type SnapshotStore interface {
	Write(ctx context.Context, snap *domain.Snapshot) error
}
