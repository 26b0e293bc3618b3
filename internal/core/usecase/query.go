package usecase

import (
	"time"

	"github.com/yhchiang/medrag/internal/core/ports"
)

const (
	defaultSearchTopK      = 10
	defaultAnswerTopK      = 20
	defaultMinSimilarity   = 0.3
	defaultMinArticles     = 3
	defaultMaxContextChars = 12000
)

// QueryConfig tunes the retrieval pipeline. Zero values fall back to the
// calibrated defaults; MinSimilarity in particular is calibrated to the
// 1-minus-squared-L2 score of the corpus embedding model and must be
// re-derived if the index metric ever changes.
type QueryConfig struct {
	SearchTopK      int
	AnswerTopK      int
	MinSimilarity   float64
	MinArticles     int
	MaxContextChars int
	ModelName       string

	TranslateTimeout time.Duration
	ExpandTimeout    time.Duration
	EmbedTimeout     time.Duration
	GenerateTimeout  time.Duration
}

func (c QueryConfig) normalize() QueryConfig {
	out := c
	if out.SearchTopK <= 0 {
		out.SearchTopK = defaultSearchTopK
	}
	if out.AnswerTopK <= 0 {
		out.AnswerTopK = defaultAnswerTopK
	}
	if out.MinSimilarity <= 0 {
		out.MinSimilarity = defaultMinSimilarity
	}
	if out.MinArticles <= 0 {
		out.MinArticles = defaultMinArticles
	}
	if out.MaxContextChars <= 0 {
		out.MaxContextChars = defaultMaxContextChars
	}
	if out.TranslateTimeout <= 0 {
		out.TranslateTimeout = 15 * time.Second
	}
	if out.ExpandTimeout <= 0 {
		out.ExpandTimeout = 15 * time.Second
	}
	if out.EmbedTimeout <= 0 {
		out.EmbedTimeout = 30 * time.Second
	}
	if out.GenerateTimeout <= 0 {
		out.GenerateTimeout = 60 * time.Second
	}
	return out
}

// QueryUseCase runs the retrieval pipeline: language normalization, query
// expansion, embedding, index search, record join, and the gated answer
// synthesis. One instance serves all requests; it holds only read-only
// state and the capability clients.
type QueryUseCase struct {
	language  ports.LanguageAnalyzer
	expander  ports.QueryExpander
	embedder  ports.Embedder
	index     ports.VectorIndex
	store     ports.ArticleStore
	generator ports.AnswerGenerator
	cfg       QueryConfig
}

func NewQueryUseCase(
	language ports.LanguageAnalyzer,
	expander ports.QueryExpander,
	embedder ports.Embedder,
	index ports.VectorIndex,
	store ports.ArticleStore,
	generator ports.AnswerGenerator,
	cfg QueryConfig,
) *QueryUseCase {
	return &QueryUseCase{
		language:  language,
		expander:  expander,
		embedder:  embedder,
		index:     index,
		store:     store,
		generator: generator,
		cfg:       cfg.normalize(),
	}
}

// Stats reports the loaded corpus for the stats endpoint.
func (uc *QueryUseCase) Stats() ports.CorpusStats {
	return ports.CorpusStats{
		TotalArticles:      uc.store.Len(),
		IndexSize:          uc.index.Size(),
		ModelName:          uc.cfg.ModelName,
		TranslationSupport: true,
		RAGSupport:         true,
	}
}
