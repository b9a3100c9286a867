package index

import "errors"

var (
	// ErrEmptyCatalog is returned when asked to index an empty catalog.
	ErrEmptyCatalog = errors.New("reaction catalog is empty")

	// ErrEmbeddingCountMismatch indicates the provider returned a different
	// number of vectors than catalog entries.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match catalog size")

	// ErrDimensionMismatch indicates vectors of inconsistent or zero dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder required")
)
