package usecase

import (
	"fmt"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Gate templates. Wording is part of the product surface; change it only
// together with the frontend copy.
const noRelevantLiteratureTemplate = `
I apologize, but I cannot find any literature directly relevant to your question "%s" in the current medical literature database.

**Possible reasons:**
- Your question may involve a newer research area
- The database may lack literature on this specific topic
- Query terms may need adjustment

**Suggestions:**
- Try rephrasing your question with different keywords
- Consider asking about related but broader concepts
- Or ask a more general related question

If needed, I can help you reformulate your query for better results.
`

const lowRelevanceTemplate = `
I found %d articles in the database, but none have high relevance to your question "%s". The most relevant article has only %s similarity.

**Analysis:**
- Found %d articles with limited relevance
- Maximum similarity: %s
- This suggests the topic may not be well-covered in our current database

**Suggestions:**
- Try using different keywords or broader terms
- Consider asking about related topics
- The available literature may not address your specific question

Would you like me to provide a brief analysis of the available articles, or would you prefer to rephrase your question?
`

const limitedArticlesTemplate = `
I found only %d articles relevant to your question "%s" in the database. While these articles have good relevance (average similarity: %s), the limited number may not provide a comprehensive answer.

**Note:**
- Only %d articles found
- Average similarity: %s
- Limited sample size may affect answer completeness

**Suggestions:**
- Consider asking a broader question to get more results
- The available literature may be sufficient for basic information
- You may want to explore related topics for more comprehensive coverage

I'll provide an analysis based on the available articles, but please note the limited scope.
`

// evaluateGate classifies the hit set before any generation call. Order
// matters: the zero-hit and low-similarity checks take priority over the
// article-count check, so a small set of weak hits reads as "nothing
// relevant" rather than "limited articles".
func evaluateGate(hits []domain.RetrievalHit, minSimilarity float64, minArticles int) domain.GateOutcome {
	if len(hits) == 0 {
		return domain.GateNoRelevantLiterature
	}
	if maxSimilarity(hits) < minSimilarity {
		if len(hits) <= minArticles {
			return domain.GateNoRelevantLiterature
		}
		return domain.GateLowRelevance
	}
	if len(hits) <= minArticles {
		return domain.GateLimitedArticles
	}
	return domain.GateNormal
}

// degradedAnswer renders the deterministic template for a non-normal gate
// outcome. No external calls; parameterized only by the original question
// and the hit statistics.
func degradedAnswer(outcome domain.GateOutcome, originalQuestion string, hits []domain.RetrievalHit) string {
	switch outcome {
	case domain.GateLowRelevance:
		highest := formatPercent(maxSimilarity(hits))
		return fmt.Sprintf(lowRelevanceTemplate, len(hits), originalQuestion, highest, len(hits), highest)
	case domain.GateLimitedArticles:
		average := formatPercent(avgSimilarity(hits))
		return fmt.Sprintf(limitedArticlesTemplate, len(hits), originalQuestion, average, len(hits), average)
	default:
		return fmt.Sprintf(noRelevantLiteratureTemplate, originalQuestion)
	}
}

func maxSimilarity(hits []domain.RetrievalHit) float64 {
	highest := hits[0].SimilarityScore
	for _, hit := range hits[1:] {
		if hit.SimilarityScore > highest {
			highest = hit.SimilarityScore
		}
	}
	return highest
}

func avgSimilarity(hits []domain.RetrievalHit) float64 {
	var sum float64
	for _, hit := range hits {
		sum += hit.SimilarityScore
	}
	return sum / float64(len(hits))
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
