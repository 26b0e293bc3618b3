package corpus

import (
	"testing"

	"github.com/yhchiang/medrag/internal/core/domain"
)

func TestStoreLookups(t *testing.T) {
	store, err := NewStore(
		[]string{"100", "200", "300"},
		[]domain.Article{
			{PMID: "100", Title: "First"},
			{PMID: "200", Title: "Second"},
			{PMID: "300", Title: "Third"},
		},
	)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", store.Len())
	}

	pmid, ok := store.PMIDAt(1)
	if !ok || pmid != "200" {
		t.Fatalf("PMIDAt(1) = %q, %v", pmid, ok)
	}
	if _, ok := store.PMIDAt(-1); ok {
		t.Fatal("PMIDAt(-1) should miss")
	}
	if _, ok := store.PMIDAt(3); ok {
		t.Fatal("PMIDAt(3) should miss")
	}

	article, ok := store.Get("300")
	if !ok || article.Title != "Third" {
		t.Fatalf("Get(300) = %+v, %v", article, ok)
	}
	if _, ok := store.Get("999"); ok {
		t.Fatal("Get(999) should miss")
	}
}

func TestNewStoreRejectsLengthMismatch(t *testing.T) {
	_, err := NewStore([]string{"100", "200"}, []domain.Article{{PMID: "100"}})
	if err == nil {
		t.Fatal("expected error for mismatched parallel slices")
	}
}
