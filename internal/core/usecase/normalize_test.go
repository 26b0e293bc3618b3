package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/yhchiang/medrag/internal/core/domain"
)

func TestIsPlainEnglish(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"What is diabetes?", true},
		{"health insurance (USA) [2020-2024]", true},
		{"cost-effectiveness: $100 vs 50%", true},
		{"什麼是糖尿病", false},
		{"health insurance 保險", false},
		{"café au lait spots", false},
	}
	for _, tc := range cases {
		if got := IsPlainEnglish(tc.query); got != tc.want {
			t.Fatalf("IsPlainEnglish(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestNormalizeFastPathSkipsAnalyzer(t *testing.T) {
	fakes := newPipelineFakes()
	uc := fakes.build(QueryConfig{})

	translation := uc.Normalize(context.Background(), "health insurance coverage")
	if translation.Text != "health insurance coverage" {
		t.Fatalf("expected identity translation, got %q", translation.Text)
	}
	if translation.SourceLanguage != domain.LanguageEnglish {
		t.Fatalf("expected English, got %s", translation.SourceLanguage)
	}
	if fakes.analyzer.calls != 0 {
		t.Fatalf("expected no analyzer calls, got %d", fakes.analyzer.calls)
	}
}

func TestNormalizeTranslatesNonEnglish(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.analyzer.result = domain.Translation{
		Text:           "What is diabetes?",
		SourceLanguage: domain.LanguageTraditionalChinese,
	}
	uc := fakes.build(QueryConfig{})

	translation := uc.Normalize(context.Background(), "什麼是糖尿病？")
	if translation.Text != "What is diabetes?" {
		t.Fatalf("expected translated text, got %q", translation.Text)
	}
	if translation.SourceLanguage != domain.LanguageTraditionalChinese {
		t.Fatalf("expected Traditional Chinese, got %s", translation.SourceLanguage)
	}
	if fakes.analyzer.calls != 1 {
		t.Fatalf("expected one analyzer call, got %d", fakes.analyzer.calls)
	}
}

func TestNormalizeFailsOpenOnAnalyzerError(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.analyzer.err = errors.New("model offline")
	uc := fakes.build(QueryConfig{})

	translation := uc.Normalize(context.Background(), "什麼是糖尿病？")
	if translation.Text != "什麼是糖尿病？" {
		t.Fatalf("expected original text on failure, got %q", translation.Text)
	}
	if translation.SourceLanguage != domain.LanguageEnglish {
		t.Fatalf("expected English fallback, got %s", translation.SourceLanguage)
	}
}

func TestNormalizeFallsBackOnEmptyTranslation(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.analyzer.result = domain.Translation{Text: "   ", SourceLanguage: domain.LanguageSimplifiedChinese}
	uc := fakes.build(QueryConfig{})

	translation := uc.Normalize(context.Background(), "什么是糖尿病？")
	if translation.Text != "什么是糖尿病？" {
		t.Fatalf("expected original text for blank translation, got %q", translation.Text)
	}
	if translation.SourceLanguage != domain.LanguageSimplifiedChinese {
		t.Fatalf("expected analyzer language kept, got %s", translation.SourceLanguage)
	}
}

func TestTranslateReportsFastPath(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.analyzer.result = domain.Translation{Text: "translated", SourceLanguage: domain.LanguageSimplifiedChinese}
	uc := fakes.build(QueryConfig{})

	if _, pure := uc.Translate(context.Background(), "plain english"); !pure {
		t.Fatalf("expected pure-english fast path")
	}
	translation, pure := uc.Translate(context.Background(), "简体中文")
	if pure {
		t.Fatalf("expected translation path")
	}
	if translation.Text != "translated" {
		t.Fatalf("expected translated text, got %q", translation.Text)
	}
}
