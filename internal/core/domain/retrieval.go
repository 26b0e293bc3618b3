package domain

// VectorHit is one raw nearest-neighbor result: the ordinal position of the
// stored vector and its squared-L2 distance from the query vector.
type VectorHit struct {
	Position int
	Distance float32
}

// RetrievalHit is one retrieved article with its retrieval metadata, shaped
// exactly as the API returns it. Ranks are 1-based and strictly increasing
// in the order the hits are emitted; SimilarityScore is 1 minus the index
// distance, so higher is more similar.
type RetrievalHit struct {
	Rank            int      `json:"rank"`
	PMID            string   `json:"pmid"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	Journal         string   `json:"journal"`
	PubDate         string   `json:"pub_date"`
	Authors         []string `json:"authors"`
	SimilarityScore float64  `json:"similarity_score"`
}

// SearchResult is the final payload of the search flow.
type SearchResult struct {
	OriginalQuery   string         `json:"original_query"`
	TranslatedQuery string         `json:"translated_query"`
	TotalResults    int            `json:"total_results"`
	Results         []RetrievalHit `json:"results"`
}

// GateOutcome names the answer-gate decision. Degraded outcomes are served
// from templates without calling the generation capability.
type GateOutcome string

const (
	GateNormal               GateOutcome = "normal"
	GateNoRelevantLiterature GateOutcome = "no_relevant_literature"
	GateLowRelevance         GateOutcome = "low_relevance"
	GateLimitedArticles      GateOutcome = "limited_articles"
)

// AnswerResult is the final payload of the question-answering flow.
// ArticlesUsed counts the articles actually rendered into the generation
// context, which can be fewer than len(RelevantArticles) when the context
// budget truncates. Gate records the gate decision for logs and metrics and
// stays off the wire.
type AnswerResult struct {
	OriginalQuestion   string         `json:"original_question"`
	TranslatedQuestion string         `json:"translated_question"`
	Answer             string         `json:"answer"`
	RelevantArticles   []RetrievalHit `json:"relevant_articles"`
	ArticlesUsed       int            `json:"articles_used"`

	Gate GateOutcome `json:"-"`
}

// GenerationRequest carries everything the answer-generation capability
// needs. Context is the sole grounding material; the capability must not
// draw on outside knowledge.
type GenerationRequest struct {
	Context           string
	Question          string
	OriginalQuestion  string
	SourceLanguage    SourceLanguage
	Region            RegionFocus
	ArticlesInContext int
}
