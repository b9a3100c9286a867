package index

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/pedsafe/ai/mock"
	"github.com/poiesic/pedsafe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	ctx := context.Background()
	catalog := core.ReactionCatalog{"Rash", "Pyrexia", "Vomiting", "Urticaria"}

	t.Run("one batched call and parallel positions", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()

		idx, err := Build(ctx, embedder, catalog, nil)
		require.NoError(t, err)
		assert.Equal(t, len(catalog), idx.Len())
		assert.Equal(t, 1, embedder.DocumentCalls())
		assert.Equal(t, 0, embedder.QueryCalls())
	})

	t.Run("self similarity", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		idx, err := Build(ctx, embedder, catalog, nil)
		require.NoError(t, err)

		for i, term := range catalog {
			q, err := embedder.EmbedQuery(ctx, term)
			require.NoError(t, err)

			hits, err := idx.Search(NormalizeVector(q), 1)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, i, hits[0].Position, term)
			assert.InDelta(t, 1.0, hits[0].Score, 1e-5, term)
		}
	})

	t.Run("empty catalog skips provider", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()

		_, err := Build(ctx, embedder, core.ReactionCatalog{}, nil)
		assert.ErrorIs(t, err, ErrEmptyCatalog)
		assert.Equal(t, 0, embedder.CallCount())
	})

	t.Run("provider error", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		boom := errors.New("provider down")
		embedder.EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, boom
		}

		_, err := Build(ctx, embedder, catalog, nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("count mismatch", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil
		}

		_, err := Build(ctx, embedder, catalog, nil)
		assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
	})

	t.Run("ragged dimensions", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}, {0, 1}, {1, 1}, {1}}, nil
		}

		_, err := Build(ctx, embedder, catalog, nil)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := Build(ctx, nil, catalog, nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})
}
