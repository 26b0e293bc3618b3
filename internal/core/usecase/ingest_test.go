package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yhchiang/medrag/internal/core/domain"
)

type ingestSourceFake struct {
	fetched [][]string
	err     error
}

func (f *ingestSourceFake) SearchIDs(context.Context, string, int, int, int) (domain.IDPage, error) {
	return domain.IDPage{}, errors.New("not implemented")
}

func (f *ingestSourceFake) FetchArticles(_ context.Context, pmids []string) ([]domain.Article, error) {
	f.fetched = append(f.fetched, append([]string(nil), pmids...))
	if f.err != nil {
		return nil, f.err
	}
	articles := make([]domain.Article, len(pmids))
	for i, pmid := range pmids {
		articles[i] = domain.Article{PMID: pmid, Title: "t", Abstract: "a"}
	}
	return articles, nil
}

type ingestRepoFake struct {
	upserted []domain.Article
	err      error
}

func (f *ingestRepoFake) UpsertArticles(_ context.Context, articles []domain.Article) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.upserted = append(f.upserted, articles...)
	return len(articles), nil
}

func (f *ingestRepoFake) ListClean(context.Context, int) ([]domain.Article, error) {
	return nil, errors.New("not implemented")
}

func (f *ingestRepoFake) CountArticles(context.Context) (int, error) {
	return 0, errors.New("not implemented")
}

type ingestJobsFake struct {
	jobID string
	added int
}

func (f *ingestJobsFake) CreateJob(context.Context, *domain.CrawlJob) error {
	return errors.New("not implemented")
}

func (f *ingestJobsFake) UpdateJobProgress(context.Context, string, int, int) error {
	return errors.New("not implemented")
}

func (f *ingestJobsFake) MarkJobStatus(context.Context, string, domain.CrawlJobStatus, string) error {
	return errors.New("not implemented")
}

func (f *ingestJobsFake) AddStored(_ context.Context, id string, delta int) error {
	f.jobID = id
	f.added += delta
	return nil
}

func TestIngestBatchStoresArticles(t *testing.T) {
	source := &ingestSourceFake{}
	repo := &ingestRepoFake{}
	jobs := &ingestJobsFake{}
	uc := NewIngestBatchUseCase(source, repo, jobs)

	batch := domain.FetchBatch{JobID: "job-1", PMIDs: []string{"11", "22", "33"}}
	stored, err := uc.IngestBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if stored != 3 {
		t.Fatalf("stored = %d, want 3", stored)
	}

	if len(source.fetched) != 1 || len(source.fetched[0]) != 3 {
		t.Fatalf("expected one fetch of 3 pmids, got %v", source.fetched)
	}
	if len(repo.upserted) != 3 {
		t.Fatalf("expected 3 upserts, got %d", len(repo.upserted))
	}
	if jobs.jobID != "job-1" || jobs.added != 3 {
		t.Fatalf("expected stored count on job-1, got %s/%d", jobs.jobID, jobs.added)
	}
}

func TestIngestBatchEmptyIsNoop(t *testing.T) {
	source := &ingestSourceFake{}
	uc := NewIngestBatchUseCase(source, &ingestRepoFake{}, &ingestJobsFake{})

	stored, err := uc.IngestBatch(context.Background(), domain.FetchBatch{JobID: "job-1"})
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if stored != 0 {
		t.Fatalf("stored = %d, want 0", stored)
	}
	if len(source.fetched) != 0 {
		t.Fatalf("expected no fetch for empty batch")
	}
}

func TestIngestBatchFetchError(t *testing.T) {
	source := &ingestSourceFake{err: errors.New("efetch down")}
	uc := NewIngestBatchUseCase(source, &ingestRepoFake{}, &ingestJobsFake{})

	_, err := uc.IngestBatch(context.Background(), domain.FetchBatch{JobID: "j", PMIDs: []string{"1"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "fetch articles") {
		t.Fatalf("expected fetch wrap, got %v", err)
	}
}

func TestIngestBatchUpsertError(t *testing.T) {
	repo := &ingestRepoFake{err: errors.New("db down")}
	uc := NewIngestBatchUseCase(&ingestSourceFake{}, repo, &ingestJobsFake{})

	_, err := uc.IngestBatch(context.Background(), domain.FetchBatch{JobID: "j", PMIDs: []string{"1"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "upsert articles") {
		t.Fatalf("expected upsert wrap, got %v", err)
	}
}

func TestIngestBatchWithoutJobSkipsCounter(t *testing.T) {
	jobs := &ingestJobsFake{}
	uc := NewIngestBatchUseCase(&ingestSourceFake{}, &ingestRepoFake{}, jobs)

	if _, err := uc.IngestBatch(context.Background(), domain.FetchBatch{PMIDs: []string{"1"}}); err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if jobs.added != 0 {
		t.Fatalf("expected no stored count without job id, got %d", jobs.added)
	}
}
