package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/core/ports"
)

const defaultEmbedBatchSize = 32

// SnapshotConfig tunes the corpus snapshot build.
type SnapshotConfig struct {
	MinAbstractChars int
	EmbedBatchSize   int
	Model            string
}

// BuildSnapshotUseCase turns the stored corpus into the serving snapshot:
// clean articles, their embedding vectors, and the position-to-PMID table,
// written atomically for the API process to load.
type BuildSnapshotUseCase struct {
	repo     ports.ArticleRepository
	embedder ports.Embedder
	store    ports.SnapshotStore
	cfg      SnapshotConfig
}

func NewBuildSnapshotUseCase(
	repo ports.ArticleRepository,
	embedder ports.Embedder,
	store ports.SnapshotStore,
	cfg SnapshotConfig,
) *BuildSnapshotUseCase {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = defaultEmbedBatchSize
	}
	return &BuildSnapshotUseCase{
		repo:     repo,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// Build embeds every clean article and writes the snapshot. Vector i always
// belongs to article i; the slices are assembled in one pass and never
// reordered.
func (uc *BuildSnapshotUseCase) Build(ctx context.Context) (*domain.SnapshotSummary, error) {
	started := time.Now()

	total, err := uc.repo.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	listed, err := uc.repo.ListClean(ctx, uc.cfg.MinAbstractChars)
	if err != nil {
		return nil, fmt.Errorf("list clean articles: %w", err)
	}
	articles := listed[:0:0]
	for _, article := range listed {
		if article.Clean(uc.cfg.MinAbstractChars) {
			articles = append(articles, article)
		}
	}
	if len(articles) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build snapshot", errors.New("no clean articles in corpus"))
	}

	vectors, err := uc.embedArticles(ctx, articles)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(articles))
	for i, article := range articles {
		ids[i] = article.PMID
	}

	snap := &domain.Snapshot{
		Model:      uc.cfg.Model,
		Dim:        len(vectors[0]),
		Vectors:    vectors,
		ArticleIDs: ids,
		Articles:   articles,
		BuiltAt:    time.Now().UTC(),
	}
	if err := uc.store.Write(ctx, snap); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	summary := &domain.SnapshotSummary{
		SourceArticles:  total,
		CleanArticles:   len(articles),
		DroppedArticles: total - len(articles),
		Dim:             snap.Dim,
		Model:           snap.Model,
		BuiltAt:         snap.BuiltAt,
	}
	slog.Info("snapshot_built",
		"source_articles", summary.SourceArticles,
		"clean_articles", summary.CleanArticles,
		"dim", summary.Dim,
		"duration_ms", float64(time.Since(started).Microseconds())/1000.0,
	)
	return summary, nil
}

func (uc *BuildSnapshotUseCase) embedArticles(ctx context.Context, articles []domain.Article) ([][]float32, error) {
	vectors := make([][]float32, 0, len(articles))
	for offset := 0; offset < len(articles); offset += uc.cfg.EmbedBatchSize {
		end := offset + uc.cfg.EmbedBatchSize
		if end > len(articles) {
			end = len(articles)
		}
		texts := make([]string, 0, end-offset)
		for _, article := range articles[offset:end] {
			texts = append(texts, article.EmbeddingText())
		}

		batch, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed articles %d-%d: %w", offset, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, domain.WrapError(
				domain.ErrTemporary,
				"embed articles",
				fmt.Errorf("vectors/texts mismatch: %d/%d", len(batch), len(texts)),
			)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
