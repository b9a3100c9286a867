package index

import (
	"fmt"
	"slices"
)

// Hit is one search result: a position in the indexed sequence and its
// inner-product score.
type Hit struct {
	Position int
	Score    float32
}

// FlatIndex is an exact inner-product index over L2-normalized vectors.
// Vectors are addressed by insertion position. Search scans every entry, which
// suits the few hundred reaction terms of a single drug's reports.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty index for vectors of dimension dim.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrDimensionMismatch, dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Add normalizes and appends vectors. Nothing is added if any vector has the
// wrong dimension.
func (f *FlatIndex) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), f.dim)
		}
	}
	for _, v := range vectors {
		f.vectors = append(f.vectors, NormalizeVector(v))
	}
	return nil
}

// Len returns the number of indexed vectors.
func (f *FlatIndex) Len() int {
	return len(f.vectors)
}

// Dim returns the vector dimension.
func (f *FlatIndex) Dim() int {
	return f.dim
}

// Search returns the k entries with the highest inner product against query,
// in descending score order with ties broken by position. Fewer than k
// entries are returned when the index is smaller. The query is used as given;
// callers normalize it for cosine similarity.
func (f *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Position: i, Score: dotProduct(query, v)}
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
