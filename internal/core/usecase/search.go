package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Search runs the literature search flow, emitting one progress event before
// each stage. The synchronous endpoint passes domain.DiscardProgress; the
// returned result is the same payload the final stream event carries.
func (uc *QueryUseCase) Search(ctx context.Context, query string, topK int, sink domain.ProgressSink) (*domain.SearchResult, error) {
	if sink == nil {
		sink = domain.DiscardProgress
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("empty query"))
	}
	if topK <= 0 {
		topK = uc.cfg.SearchTopK
	}

	sink(domain.StageStarted{Step: domain.StageDetect})
	translation := uc.translateStage(ctx, query, sink)

	sink(domain.StageStarted{Step: domain.StageEmbedding})
	vector, err := uc.embedMean(ctx, []string{translation.Text})
	if err != nil {
		return nil, failPipeline(sink, err)
	}

	sink(domain.StageStarted{Step: domain.StageSearch})
	hits, err := uc.index.Search(vector, topK)
	if err != nil {
		return nil, failPipeline(sink, fmt.Errorf("search index: %w", err))
	}

	sink(domain.StageStarted{Step: domain.StageRetrieve})
	results := uc.joinHits(hits)

	sink(domain.StageStarted{Step: domain.StageComplete})
	final := &domain.SearchResult{
		OriginalQuery:   query,
		TranslatedQuery: translation.Text,
		TotalResults:    len(results),
		Results:         results,
	}
	sink(domain.SearchCompleted{Complete: true, SearchResult: *final})
	return final, nil
}

// translateStage wraps Normalize with the events streaming clients show: a
// bare translate marker on the fast path, original and translated notices
// around the actual call otherwise.
func (uc *QueryUseCase) translateStage(ctx context.Context, query string, sink domain.ProgressSink) domain.Translation {
	if IsPlainEnglish(query) {
		sink(domain.StageStarted{Step: domain.StageTranslate})
		return domain.Translation{Text: query, SourceLanguage: domain.LanguageEnglish}
	}
	sink(domain.TranslationNotice{Step: domain.StageTranslate, TranslationInfo: "Original: " + query})
	translation := uc.Normalize(ctx, query)
	sink(domain.TranslationNotice{Step: domain.StageTranslate, TranslationResult: "Translated: " + translation.Text})
	return translation
}

// failPipeline converts a stage error into the single terminal error event.
func failPipeline(sink domain.ProgressSink, err error) error {
	sink(domain.PipelineFailed{Error: err.Error()})
	return err
}
