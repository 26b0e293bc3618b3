package ports

import (
	"context"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// LiteratureSearcher is the inbound contract for ranked literature search.
// The sink receives stage events in order; pass domain.DiscardProgress for
// the non-streaming endpoints.
type LiteratureSearcher interface {
	Search(ctx context.Context, query string, topK int, sink domain.ProgressSink) (*domain.SearchResult, error)
}

// QuestionAnswerer is the inbound contract for gated RAG answering.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string, topK int, sink domain.ProgressSink) (*domain.AnswerResult, error)
}

// QueryTranslator previews language analysis for the translate endpoint.
// The bool reports whether the ASCII fast path applied (no external call).
type QueryTranslator interface {
	Translate(ctx context.Context, query string) (domain.Translation, bool)
}

// CorpusStats describes the loaded corpus for the stats endpoint.
type CorpusStats struct {
	TotalArticles      int    `json:"total_articles"`
	IndexSize          int    `json:"index_size"`
	ModelName          string `json:"model_name"`
	TranslationSupport bool   `json:"translation_support"`
	RAGSupport         bool   `json:"rag_support"`
}

// StatsProvider exposes corpus statistics.
type StatsProvider interface {
	Stats() CorpusStats
}

// CrawlRunner drives one acquisition run over a crawl plan.
type CrawlRunner interface {
	Run(ctx context.Context, plan domain.CrawlPlan) error
}

// BatchIngestor processes one fetch batch from the queue and reports how
// many articles landed in the corpus.
type BatchIngestor interface {
	IngestBatch(ctx context.Context, batch domain.FetchBatch) (int, error)
}

// SnapshotBuilder produces the corpus snapshot the api serves from.
type SnapshotBuilder interface {
	Build(ctx context.Context) (*domain.SnapshotSummary, error)
}
