package flat

import (
	"fmt"
	"sort"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// Index is a flat squared-L2 nearest-neighbor index over the corpus
// vectors. It is built once from a snapshot and never mutated, so Search
// needs no locking. Distances are squared euclidean with no square root
// taken; the similarity scores downstream are defined on this metric.
type Index struct {
	dim  int
	rows int
	data []float32
}

// New copies vectors into one contiguous backing slice. All rows must
// share the same dimension.
func New(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return &Index{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("flat index: zero-dimension vectors")
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("flat index: vector %d has dim %d, want %d", i, len(vec), dim)
		}
		data = append(data, vec...)
	}
	return &Index{dim: dim, rows: len(vectors), data: data}, nil
}

func (ix *Index) Size() int { return ix.rows }

func (ix *Index) Dim() int { return ix.dim }

// Search returns up to k hits in ascending distance order. k beyond the
// population returns every stored vector; equal distances keep the lower
// position first.
func (ix *Index) Search(vector []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("flat index: k must be positive, got %d", k)
	}
	if ix.rows == 0 {
		return nil, nil
	}
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("flat index: query dim %d, want %d", len(vector), ix.dim)
	}

	hits := make([]domain.VectorHit, ix.rows)
	for row := 0; row < ix.rows; row++ {
		base := row * ix.dim
		var dist float32
		for i, q := range vector {
			diff := ix.data[base+i] - q
			dist += diff * diff
		}
		hits[row] = domain.VectorHit{Position: row, Distance: dist}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}
