package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/yhchiang/medrag/internal/core/domain"
)

func TestAnswerNormalFlow(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.expander.terms = []string{"coverage policy", "national insurance"}
	uc := fakes.build(QueryConfig{})

	var events []domain.ProgressEvent
	result, err := uc.Answer(context.Background(), "how does coverage work?", 0, collectEvents(&events))
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	assertSteps(t, events,
		domain.StageDetect,
		domain.StageTranslate,
		domain.StageExpand,
		domain.StageEmbedding,
		domain.StageSearch,
		domain.StageRetrieve,
		domain.StageContext,
		domain.StageGenerate,
		domain.StageComplete,
	)
	final, ok := events[len(events)-1].(domain.AnswerCompleted)
	if !ok {
		t.Fatalf("expected terminal AnswerCompleted, got %T", events[len(events)-1])
	}
	if !final.Complete {
		t.Fatalf("expected complete flag set")
	}

	if result.Answer != "generated answer" {
		t.Fatalf("expected generated answer, got %q", result.Answer)
	}
	if result.Gate != domain.GateNormal {
		t.Fatalf("expected normal gate, got %s", result.Gate)
	}
	if result.ArticlesUsed != 4 {
		t.Fatalf("expected 4 articles used, got %d", result.ArticlesUsed)
	}
	if len(result.RelevantArticles) != 4 {
		t.Fatalf("expected 4 relevant articles, got %d", len(result.RelevantArticles))
	}
	if fakes.index.k != 20 {
		t.Fatalf("expected default top k 20, got %d", fakes.index.k)
	}

	wantVariants := []string{"how does coverage work?", "coverage policy", "national insurance"}
	got := fakes.embedder.batches[0]
	if len(got) != len(wantVariants) {
		t.Fatalf("variants = %v, want %v", got, wantVariants)
	}
	for i := range wantVariants {
		if got[i] != wantVariants[i] {
			t.Fatalf("variant[%d] = %q, want %q", i, got[i], wantVariants[i])
		}
	}

	req := fakes.generator.req
	if req.ArticlesInContext != 4 {
		t.Fatalf("expected 4 articles in context, got %d", req.ArticlesInContext)
	}
	if req.SourceLanguage != domain.LanguageEnglish {
		t.Fatalf("expected English source, got %s", req.SourceLanguage)
	}
	if req.Region != domain.RegionNone {
		t.Fatalf("expected no region focus, got %s", req.Region)
	}
	if !strings.Contains(req.Context, "PMID: 1001") {
		t.Fatalf("expected context to carry top article, got %q", req.Context)
	}
}

func TestAnswerExpansionFailsOpen(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.expander.err = errors.New("expander offline")
	uc := fakes.build(QueryConfig{})

	if _, err := uc.Answer(context.Background(), "plain question", 0, nil); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	variants := fakes.embedder.batches[0]
	if len(variants) != 2 || variants[0] != "plain question" || variants[1] != "plain question" {
		t.Fatalf("expected doubled identity variants, got %v", variants)
	}
}

func TestAnswerDegradedSkipsGenerator(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.index.hits = []domain.VectorHit{
		{Position: 0, Distance: 0.75},
		{Position: 1, Distance: 0.8},
	}
	uc := fakes.build(QueryConfig{})

	result, err := uc.Answer(context.Background(), "unrelated question", 0, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if fakes.generator.calls != 0 {
		t.Fatalf("expected no generation call, got %d", fakes.generator.calls)
	}
	if result.Gate != domain.GateNoRelevantLiterature {
		t.Fatalf("expected no-relevant-literature gate, got %s", result.Gate)
	}
	if !strings.Contains(result.Answer, "cannot find any literature directly relevant") {
		t.Fatalf("expected template answer, got %q", result.Answer)
	}
	if !strings.Contains(result.Answer, `"unrelated question"`) {
		t.Fatalf("expected original question in template, got %q", result.Answer)
	}
}

func TestAnswerLimitedArticlesUsesTemplate(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.index.hits = []domain.VectorHit{
		{Position: 0, Distance: 0.5},
		{Position: 1, Distance: 0.6},
	}
	uc := fakes.build(QueryConfig{})

	result, err := uc.Answer(context.Background(), "narrow question", 0, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Gate != domain.GateLimitedArticles {
		t.Fatalf("expected limited-articles gate, got %s", result.Gate)
	}
	if fakes.generator.calls != 0 {
		t.Fatalf("expected no generation call, got %d", fakes.generator.calls)
	}
	if !strings.Contains(result.Answer, "I found only 2 articles") {
		t.Fatalf("expected limited template, got %q", result.Answer)
	}
}

func TestAnswerGenerationFailureIsFatal(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.generator.err = errors.New("model overloaded")
	uc := fakes.build(QueryConfig{})

	var events []domain.ProgressEvent
	_, err := uc.Answer(context.Background(), "how does coverage work?", 0, collectEvents(&events))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected generation kind, got %v", err)
	}
	if _, ok := events[len(events)-1].(domain.PipelineFailed); !ok {
		t.Fatalf("expected terminal PipelineFailed, got %T", events[len(events)-1])
	}
}

func TestAnswerDetectsRegionFocus(t *testing.T) {
	fakes := newPipelineFakes()
	uc := fakes.build(QueryConfig{})

	if _, err := uc.Answer(context.Background(), "How does Taiwan fund its health insurance?", 0, nil); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if fakes.generator.req.Region != domain.RegionTaiwan {
		t.Fatalf("expected taiwan region, got %s", fakes.generator.req.Region)
	}
}

func TestAnswerContextBudgetLimitsArticlesUsed(t *testing.T) {
	fakes := newPipelineFakes()
	uc0 := fakes.build(QueryConfig{})
	hits := uc0.joinHits(fakes.index.hits)
	budget := utf8.RuneCountInString(renderArticleBlock(hits[0]))

	fakes2 := newPipelineFakes()
	uc := fakes2.build(QueryConfig{MaxContextChars: budget})
	result, err := uc.Answer(context.Background(), "how does coverage work?", 0, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.ArticlesUsed != 1 {
		t.Fatalf("expected 1 article used under budget, got %d", result.ArticlesUsed)
	}
	if len(result.RelevantArticles) != 4 {
		t.Fatalf("expected all 4 hits reported, got %d", len(result.RelevantArticles))
	}
	if fakes2.generator.req.ArticlesInContext != 1 {
		t.Fatalf("expected 1 article in generation context, got %d", fakes2.generator.req.ArticlesInContext)
	}
}

func TestAnswerTranslationFlowsIntoGeneration(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.analyzer.result = domain.Translation{
		Text:           "how is insurance funded?",
		SourceLanguage: domain.LanguageSimplifiedChinese,
	}
	uc := fakes.build(QueryConfig{})

	result, err := uc.Answer(context.Background(), "保险如何筹资？", 0, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.TranslatedQuestion != "how is insurance funded?" {
		t.Fatalf("expected translated question, got %q", result.TranslatedQuestion)
	}
	if result.OriginalQuestion != "保险如何筹资？" {
		t.Fatalf("expected original question preserved, got %q", result.OriginalQuestion)
	}
	req := fakes.generator.req
	if req.SourceLanguage != domain.LanguageSimplifiedChinese {
		t.Fatalf("expected simplified chinese source, got %s", req.SourceLanguage)
	}
	if req.OriginalQuestion != "保险如何筹资？" || req.Question != "how is insurance funded?" {
		t.Fatalf("unexpected generation questions: %+v", req)
	}
}
