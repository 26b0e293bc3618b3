package domain

import "time"

// Snapshot is the complete serving artifact set: one embedding vector per
// article, the position-to-PMID association, and the full records. Vectors,
// ArticleIDs, and Articles are parallel: index i of each refers to the same
// article.
type Snapshot struct {
	Model      string
	Dim        int
	Vectors    [][]float32
	ArticleIDs []string
	Articles   []Article
	BuiltAt    time.Time
}

// SnapshotSummary reports what a snapshot build produced.
type SnapshotSummary struct {
	SourceArticles  int
	CleanArticles   int
	DroppedArticles int
	Dim             int
	Model           string
	BuiltAt         time.Time
}
