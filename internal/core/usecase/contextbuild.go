package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/yhchiang/medrag/internal/core/domain"
)

var blockSeparator = strings.Repeat("-", 50)

// buildContext renders hits into the literature context in rank order. A
// block that would push the running total past maxChars stops the build at
// that record boundary; blocks are never split. Returns the joined context
// and the number of articles included. Lengths count runes, not bytes.
func buildContext(hits []domain.RetrievalHit, maxChars int) (string, int) {
	parts := make([]string, 0, len(hits))
	length := 0
	for _, hit := range hits {
		block := renderArticleBlock(hit)
		blockLen := utf8.RuneCountInString(block)
		if length+blockLen > maxChars {
			break
		}
		parts = append(parts, block)
		length += blockLen
	}
	return strings.Join(parts, "\n"), len(parts)
}

func renderArticleBlock(hit domain.RetrievalHit) string {
	var b strings.Builder
	b.WriteString("PMID: " + hit.PMID + "\n")
	b.WriteString("Title: " + hit.Title + "\n")
	b.WriteString("Journal: " + hit.Journal + "\n")
	b.WriteString("Publication Date: " + hit.PubDate + "\n")
	b.WriteString("Abstract: " + hit.Abstract + "\n")
	b.WriteString("Authors: " + strings.Join(hit.Authors, ", ") + "\n")
	b.WriteString(blockSeparator + "\n")
	return b.String()
}
