package corpus

import (
	"fmt"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Store is the in-memory article lookup the api serves from: position to
// PMID for joining index hits, PMID to record for payload assembly. Built
// once from a snapshot and read-only afterwards.
type Store struct {
	ids      []string
	articles map[string]domain.Article
}

// NewStore indexes the snapshot records. IDs and articles are parallel
// slices; a length mismatch means the snapshot is corrupt.
func NewStore(ids []string, articles []domain.Article) (*Store, error) {
	if len(ids) != len(articles) {
		return nil, fmt.Errorf("corpus store: %d ids for %d articles", len(ids), len(articles))
	}

	byPMID := make(map[string]domain.Article, len(articles))
	for _, article := range articles {
		byPMID[article.PMID] = article
	}

	return &Store{
		ids:      ids,
		articles: byPMID,
	}, nil
}

func (s *Store) PMIDAt(position int) (string, bool) {
	if position < 0 || position >= len(s.ids) {
		return "", false
	}
	return s.ids[position], true
}

func (s *Store) Get(pmid string) (domain.Article, bool) {
	article, ok := s.articles[pmid]
	return article, ok
}

func (s *Store) Len() int {
	return len(s.ids)
}
