package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/pedsafe/ai"
	"github.com/poiesic/pedsafe/core"
)

// Build embeds every catalog term in one batched call and returns an index
// whose position i holds the vector for catalog[i]. The embedder is not called
// for an empty catalog.
func Build(ctx context.Context, embedder ai.Embedder, catalog core.ReactionCatalog, logger *slog.Logger) (*FlatIndex, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "index-builder")

	logger.Debug("embedding reaction catalog", "terms", len(catalog))
	vectors, err := embedder.EmbedDocuments(ctx, catalog)
	if err != nil {
		return nil, fmt.Errorf("embed catalog: %w", err)
	}
	if len(vectors) != len(catalog) {
		return nil, fmt.Errorf("%w: got %d vectors for %d terms", ErrEmbeddingCountMismatch, len(vectors), len(catalog))
	}

	idx, err := NewFlatIndex(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors...); err != nil {
		return nil, err
	}

	logger.Info("built reaction index", "terms", idx.Len(), "dimension", idx.Dim())
	return idx, nil
}
