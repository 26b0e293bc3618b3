package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Retrieve embeds the query variants, searches the index, and joins the hits
// back to full articles. Deterministic for a fixed snapshot.
func (uc *QueryUseCase) Retrieve(ctx context.Context, variants []string, topK int) ([]domain.RetrievalHit, error) {
	vector, err := uc.embedMean(ctx, variants)
	if err != nil {
		return nil, err
	}

	hits, err := uc.index.Search(vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	return uc.joinHits(hits), nil
}

// embedMean embeds every variant and collapses the vectors into their
// element-wise mean, yielding one query vector that blends the original
// phrasing with the expansion terms.
func (uc *QueryUseCase) embedMean(ctx context.Context, variants []string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := uc.embedder.Embed(ctx, variants)
	if err != nil {
		return nil, fmt.Errorf("embed query variants: %w", err)
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrTemporary, "embed query variants", errors.New("embedder returned no vectors"))
	}
	return meanVector(vectors), nil
}

func meanVector(vectors [][]float32) []float32 {
	mean := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			mean[i] += v
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

// joinHits resolves index positions to articles. A position with no mapped
// PMID, or a PMID missing from the store, is dropped without failing the
// request; ranks stay dense over the hits that survive. Similarity is
// 1 minus the index distance, matching the score the gate thresholds were
// calibrated against.
func (uc *QueryUseCase) joinHits(hits []domain.VectorHit) []domain.RetrievalHit {
	results := make([]domain.RetrievalHit, 0, len(hits))
	rank := 1
	for _, hit := range hits {
		pmid, ok := uc.store.PMIDAt(hit.Position)
		if !ok {
			slog.Warn("position_unmapped", "position", hit.Position)
			continue
		}
		article, ok := uc.store.Get(pmid)
		if !ok {
			slog.Warn("article_missing", "pmid", pmid)
			continue
		}
		results = append(results, domain.RetrievalHit{
			Rank:            rank,
			PMID:            pmid,
			Title:           article.Title,
			Abstract:        article.Abstract,
			Journal:         article.Journal,
			PubDate:         article.PubDate,
			Authors:         article.Authors,
			SimilarityScore: float64(1 - hit.Distance),
		})
		rank++
	}
	return results
}
