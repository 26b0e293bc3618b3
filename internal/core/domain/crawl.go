package domain

import (
	"errors"
	"time"
)

type CrawlJobStatus string

const (
	CrawlPending  CrawlJobStatus = "pending"
	CrawlRunning  CrawlJobStatus = "running"
	CrawlComplete CrawlJobStatus = "complete"
	CrawlFailed   CrawlJobStatus = "failed"
)

// CrawlJob tracks one term-and-year unit of the acquisition pipeline: the
// crawler creates it, fills Searched/Published while paging ESearch, and the
// workers raise Stored as fetched articles land in the corpus.
type CrawlJob struct {
	ID        string
	Term      string
	Year      int
	Status    CrawlJobStatus
	Searched  int
	Published int
	Stored    int
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FetchBatch is the queue message between crawler and workers: a slice of
// PMIDs to fetch with EFetch, tagged with the job they belong to.
// PublishedAt is when the crawler enqueued it, used for queue-lag metrics.
type FetchBatch struct {
	JobID       string    `json:"job_id"`
	PMIDs       []string  `json:"pmids"`
	PublishedAt time.Time `json:"published_at"`
}

// IDPage is one page of an identifier search: the ids on this page plus the
// total match count reported by the source.
type IDPage struct {
	IDs   []string
	Total int
}

// CrawlPlan declares one acquisition run. Years are split into separate
// searches because the source caps any single result set at 10,000 records.
type CrawlPlan struct {
	MeshTerms      []string `yaml:"mesh_terms"`
	StartYear      int      `yaml:"start_year"`
	EndYear        int      `yaml:"end_year"`
	PageSize       int      `yaml:"page_size"`
	FetchBatchSize int      `yaml:"fetch_batch_size"`
}

// Validate rejects plans a run could not execute.
func (p CrawlPlan) Validate() error {
	if len(p.MeshTerms) == 0 {
		return WrapError(ErrInvalidInput, "validate crawl plan", errors.New("no mesh terms"))
	}
	if p.StartYear <= 0 || p.EndYear < p.StartYear {
		return WrapError(ErrInvalidInput, "validate crawl plan", errors.New("bad year range"))
	}
	return nil
}
