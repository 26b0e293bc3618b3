package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Answer runs the question-answering flow: the search flow plus query
// expansion, context assembly, and the gated answer synthesis.
func (uc *QueryUseCase) Answer(ctx context.Context, question string, topK int, sink domain.ProgressSink) (*domain.AnswerResult, error) {
	if sink == nil {
		sink = domain.DiscardProgress
	}
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("empty question"))
	}
	if topK <= 0 {
		topK = uc.cfg.AnswerTopK
	}

	sink(domain.StageStarted{Step: domain.StageDetect})
	translation := uc.translateStage(ctx, question, sink)

	sink(domain.StageStarted{Step: domain.StageExpand})
	variants := append([]string{translation.Text}, uc.Expand(ctx, translation.Text)...)

	sink(domain.StageStarted{Step: domain.StageEmbedding})
	vector, err := uc.embedMean(ctx, variants)
	if err != nil {
		return nil, failPipeline(sink, err)
	}

	sink(domain.StageStarted{Step: domain.StageSearch})
	hits, err := uc.index.Search(vector, topK)
	if err != nil {
		return nil, failPipeline(sink, fmt.Errorf("search index: %w", err))
	}

	sink(domain.StageStarted{Step: domain.StageRetrieve})
	articles := uc.joinHits(hits)

	sink(domain.StageStarted{Step: domain.StageContext})
	contextText, used := buildContext(articles, uc.cfg.MaxContextChars)

	sink(domain.StageStarted{Step: domain.StageGenerate})
	outcome := evaluateGate(articles, uc.cfg.MinSimilarity, uc.cfg.MinArticles)
	answer, err := uc.synthesize(ctx, outcome, translation, question, contextText, used, articles)
	if err != nil {
		return nil, failPipeline(sink, err)
	}

	sink(domain.StageStarted{Step: domain.StageComplete})
	final := &domain.AnswerResult{
		OriginalQuestion:   question,
		TranslatedQuestion: translation.Text,
		Answer:             answer,
		RelevantArticles:   articles,
		ArticlesUsed:       used,
		Gate:               outcome,
	}
	sink(domain.AnswerCompleted{Complete: true, AnswerResult: *final})
	return final, nil
}

// synthesize produces the answer for the gate outcome: deterministic
// templates for the degraded outcomes, one generation call otherwise.
// Generation failure is fatal for the request; once the gate has passed
// there is no template fallback.
func (uc *QueryUseCase) synthesize(
	ctx context.Context,
	outcome domain.GateOutcome,
	translation domain.Translation,
	originalQuestion string,
	contextText string,
	articlesInContext int,
	hits []domain.RetrievalHit,
) (string, error) {
	if outcome != domain.GateNormal {
		slog.Info("degraded_answer", "outcome", string(outcome), "articles", len(hits))
		return degradedAnswer(outcome, originalQuestion, hits), nil
	}

	ctx, cancel := context.WithTimeout(ctx, uc.cfg.GenerateTimeout)
	defer cancel()

	answer, err := uc.generator.Generate(ctx, domain.GenerationRequest{
		Context:           contextText,
		Question:          translation.Text,
		OriginalQuestion:  originalQuestion,
		SourceLanguage:    translation.SourceLanguage,
		Region:            domain.DetectRegionFocus(translation.Text),
		ArticlesInContext: articlesInContext,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "generate answer", err)
	}
	return answer, nil
}
