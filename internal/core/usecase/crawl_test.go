package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/yhchiang/medrag/internal/core/domain"
)

type crawlSourceFake struct {
	ids       []string
	errOnYear int
}

func (f *crawlSourceFake) SearchIDs(_ context.Context, _ string, year, retStart, retMax int) (domain.IDPage, error) {
	if f.errOnYear != 0 && year == f.errOnYear {
		return domain.IDPage{}, errors.New("esearch unavailable")
	}
	end := retStart + retMax
	if end > len(f.ids) {
		end = len(f.ids)
	}
	if retStart > len(f.ids) {
		retStart = len(f.ids)
	}
	return domain.IDPage{IDs: f.ids[retStart:end], Total: len(f.ids)}, nil
}

func (f *crawlSourceFake) FetchArticles(context.Context, []string) ([]domain.Article, error) {
	return nil, errors.New("not implemented")
}

type crawlQueueFake struct {
	batches []domain.FetchBatch
	err     error
}

func (f *crawlQueueFake) PublishFetchBatch(_ context.Context, batch domain.FetchBatch) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *crawlQueueFake) SubscribeFetchBatch(context.Context, func(context.Context, domain.FetchBatch) error) error {
	return errors.New("not implemented")
}

type crawlJobsFake struct {
	created   []domain.CrawlJob
	statuses  []domain.CrawlJobStatus
	searched  int
	published int
}

func (f *crawlJobsFake) CreateJob(_ context.Context, job *domain.CrawlJob) error {
	f.created = append(f.created, *job)
	return nil
}

func (f *crawlJobsFake) UpdateJobProgress(_ context.Context, _ string, searched, published int) error {
	f.searched = searched
	f.published = published
	return nil
}

func (f *crawlJobsFake) MarkJobStatus(_ context.Context, _ string, status domain.CrawlJobStatus, _ string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *crawlJobsFake) AddStored(context.Context, string, int) error {
	return errors.New("not implemented")
}

func pmidRange(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = strconv.Itoa(i + 1)
	}
	return ids
}

func TestCrawlRunPagesAndBatches(t *testing.T) {
	source := &crawlSourceFake{ids: pmidRange(7)}
	queue := &crawlQueueFake{}
	jobs := &crawlJobsFake{}
	uc := NewCrawlUseCase(source, queue, jobs)

	plan := domain.CrawlPlan{
		MeshTerms:      []string{`"Insurance, Health"[MeSH Terms]`},
		StartYear:      2023,
		EndYear:        2023,
		PageSize:       3,
		FetchBatchSize: 5,
	}
	if err := uc.Run(context.Background(), plan); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(queue.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(queue.batches))
	}
	if len(queue.batches[0].PMIDs) != 5 || len(queue.batches[1].PMIDs) != 2 {
		t.Fatalf("unexpected batch sizes %d, %d", len(queue.batches[0].PMIDs), len(queue.batches[1].PMIDs))
	}
	var all []string
	for _, batch := range queue.batches {
		if batch.JobID == "" {
			t.Fatalf("expected job id on batch")
		}
		all = append(all, batch.PMIDs...)
	}
	for i, pmid := range all {
		if pmid != fmt.Sprintf("%d", i+1) {
			t.Fatalf("pmid[%d] = %s, want %d", i, pmid, i+1)
		}
	}

	if jobs.searched != 7 || jobs.published != 7 {
		t.Fatalf("expected progress 7/7, got %d/%d", jobs.searched, jobs.published)
	}
	if len(jobs.created) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs.created))
	}
	if jobs.created[0].Status != domain.CrawlPending {
		t.Fatalf("expected pending job at creation, got %s", jobs.created[0].Status)
	}
	wantStatuses := []domain.CrawlJobStatus{domain.CrawlRunning, domain.CrawlComplete}
	if len(jobs.statuses) != len(wantStatuses) {
		t.Fatalf("statuses = %v, want %v", jobs.statuses, wantStatuses)
	}
	for i := range wantStatuses {
		if jobs.statuses[i] != wantStatuses[i] {
			t.Fatalf("status[%d] = %s, want %s", i, jobs.statuses[i], wantStatuses[i])
		}
	}
}

func TestCrawlRunContinuesAfterJobFailure(t *testing.T) {
	source := &crawlSourceFake{ids: pmidRange(2), errOnYear: 2022}
	queue := &crawlQueueFake{}
	jobs := &crawlJobsFake{}
	uc := NewCrawlUseCase(source, queue, jobs)

	plan := domain.CrawlPlan{
		MeshTerms: []string{"term"},
		StartYear: 2022,
		EndYear:   2023,
	}
	if err := uc.Run(context.Background(), plan); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(jobs.created) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs.created))
	}
	var sawFailed, sawComplete bool
	for _, status := range jobs.statuses {
		if status == domain.CrawlFailed {
			sawFailed = true
		}
		if status == domain.CrawlComplete {
			sawComplete = true
		}
	}
	if !sawFailed || !sawComplete {
		t.Fatalf("expected one failed and one complete job, statuses = %v", jobs.statuses)
	}
	if len(queue.batches) != 1 {
		t.Fatalf("expected single batch from surviving year, got %d", len(queue.batches))
	}
}

func TestCrawlRunRejectsBadPlan(t *testing.T) {
	uc := NewCrawlUseCase(&crawlSourceFake{}, &crawlQueueFake{}, &crawlJobsFake{})
	err := uc.Run(context.Background(), domain.CrawlPlan{StartYear: 2020, EndYear: 2021})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
}

func TestCrawlRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := NewCrawlUseCase(&crawlSourceFake{ids: pmidRange(2)}, &crawlQueueFake{}, &crawlJobsFake{})
	plan := domain.CrawlPlan{MeshTerms: []string{"term"}, StartYear: 2020, EndYear: 2021}
	if err := uc.Run(ctx, plan); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
