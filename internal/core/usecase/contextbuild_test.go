package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/yhchiang/medrag/internal/core/domain"
)

func contextHit(pmid string) domain.RetrievalHit {
	return domain.RetrievalHit{
		PMID:     pmid,
		Title:    "Study " + pmid,
		Abstract: "Findings for " + pmid,
		Journal:  "Test Journal",
		PubDate:  "2023-05",
		Authors:  []string{"Jane Doe", "John Roe"},
	}
}

func TestRenderArticleBlock(t *testing.T) {
	block := renderArticleBlock(contextHit("42"))
	want := "PMID: 42\n" +
		"Title: Study 42\n" +
		"Journal: Test Journal\n" +
		"Publication Date: 2023-05\n" +
		"Abstract: Findings for 42\n" +
		"Authors: Jane Doe, John Roe\n" +
		strings.Repeat("-", 50) + "\n"
	if block != want {
		t.Fatalf("block mismatch:\n got %q\nwant %q", block, want)
	}
}

func TestBuildContextJoinsInRankOrder(t *testing.T) {
	hits := []domain.RetrievalHit{contextHit("1"), contextHit("2")}
	contextText, used := buildContext(hits, 12000)
	if used != 2 {
		t.Fatalf("expected 2 articles used, got %d", used)
	}
	want := renderArticleBlock(hits[0]) + "\n" + renderArticleBlock(hits[1])
	if contextText != want {
		t.Fatalf("context mismatch:\n got %q\nwant %q", contextText, want)
	}
}

func TestBuildContextStopsAtRecordBoundary(t *testing.T) {
	hits := []domain.RetrievalHit{contextHit("1"), contextHit("2"), contextHit("3")}
	blockLen := utf8.RuneCountInString(renderArticleBlock(hits[0]))

	contextText, used := buildContext(hits, blockLen*2)
	if used != 2 {
		t.Fatalf("expected exactly 2 articles at 2x budget, got %d", used)
	}
	if strings.Contains(contextText, "PMID: 3") {
		t.Fatalf("third article must not leak into context")
	}

	if _, used := buildContext(hits, blockLen); used != 1 {
		t.Fatalf("expected exact-fit budget to keep one article, got %d", used)
	}
	if _, used := buildContext(hits, blockLen-1); used != 0 {
		t.Fatalf("expected no articles under first block size, got %d", used)
	}
}

func TestBuildContextEmptyHits(t *testing.T) {
	contextText, used := buildContext(nil, 12000)
	if contextText != "" || used != 0 {
		t.Fatalf("expected empty context, got %q used=%d", contextText, used)
	}
}

func TestBuildContextCountsRunes(t *testing.T) {
	hit := contextHit("9")
	hit.Abstract = strings.Repeat("糖", 40)
	blockRunes := utf8.RuneCountInString(renderArticleBlock(hit))

	if _, used := buildContext([]domain.RetrievalHit{hit}, blockRunes); used != 1 {
		t.Fatalf("expected rune-budgeted block to fit, got used=%d", used)
	}
	if _, used := buildContext([]domain.RetrievalHit{hit}, blockRunes-1); used != 0 {
		t.Fatalf("expected rune budget to exclude block, got used=%d", used)
	}
}
