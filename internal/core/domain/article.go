package domain

import "strings"

// Article is one PubMed literature record. Articles are created in bulk by
// the ingest pipeline, cleaned at snapshot-build time, and loaded read-only
// into the serving process; a running server never mutates them.
type Article struct {
	PMID     string   `json:"pmid"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Journal  string   `json:"journal"`
	PubDate  string   `json:"pub_date"`

	MeshTerms []string `json:"mesh_terms,omitempty"`
	PubTypes  []string `json:"pub_types,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	Volume    string   `json:"volume,omitempty"`
	Issue     string   `json:"issue,omitempty"`
	Pages     string   `json:"pages,omitempty"`
}

// EmbeddingText renders the article the way the embedding job encodes it.
// The snapshot builder and any future re-indexer must agree on this format,
// otherwise query vectors and corpus vectors live in different spaces.
func (a Article) EmbeddingText() string {
	return "Title: " + a.Title + "\nAbstract: " + a.Abstract
}

// Clean reports whether the article carries enough text to be embedded and
// cited. minAbstractChars <= 0 disables the length check.
func (a Article) Clean(minAbstractChars int) bool {
	if strings.TrimSpace(a.Title) == "" {
		return false
	}
	abstract := strings.TrimSpace(a.Abstract)
	if abstract == "" {
		return false
	}
	if minAbstractChars > 0 && len(abstract) < minAbstractChars {
		return false
	}
	return true
}
