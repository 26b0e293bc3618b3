package ports

import (
	"context"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Embedder maps text to fixed-dimension vectors. Deterministic for a fixed
// model; query and corpus text must go through the same implementation.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the immutable in-memory nearest-neighbor index built from
// the corpus snapshot. Search returns up to k hits in ascending distance
// order; k larger than the population returns every stored vector. No
// method blocks and no locking is needed: the index never changes after
// construction.
type VectorIndex interface {
	Search(vector []float32, k int) ([]domain.VectorHit, error)
	Size() int
	Dim() int
}

// ArticleStore resolves index positions to PMIDs and PMIDs to full articles
// with O(1) lookups. Read-only after bulk load; position i corresponds to
// vector i of the index built from the same snapshot.
type ArticleStore interface {
	PMIDAt(position int) (string, bool)
	Get(pmid string) (domain.Article, bool)
	Len() int
}

// LanguageAnalyzer identifies the language of a question and translates it
// to English, keeping already-English technical terms verbatim.
type LanguageAnalyzer interface {
	AnalyzeAndTranslate(ctx context.Context, text string) (domain.Translation, error)
}

// QueryExpander derives related domain-register search phrases from a
// normalized query.
type QueryExpander interface {
	Expand(ctx context.Context, query string) ([]string, error)
}

// AnswerGenerator synthesizes the grounded answer from the assembled
// context. Failures here abort the request; there is no template fallback.
type AnswerGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}
