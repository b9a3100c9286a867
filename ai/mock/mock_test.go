package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("rash", DefaultDimension)
	b := DeterministicVector("rash", DefaultDimension)
	c := DeterministicVector("fever", DefaultDimension)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	docs, err := m.EmbedDocuments(ctx, []string{"rash", "fever"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	q, err := m.EmbedQuery(ctx, "rash")
	require.NoError(t, err)
	assert.Equal(t, docs[0], q)

	assert.Equal(t, 1, m.DocumentCalls())
	assert.Equal(t, 1, m.QueryCalls())
	assert.Equal(t, 2, m.CallCount())

	m.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("down")
	}
	_, err = m.EmbedQuery(ctx, "rash")
	assert.Error(t, err)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedQuery(ctx, "rash")
	assert.NoError(t, err)
}

func TestMockGenerator(t *testing.T) {
	ctx := context.Background()
	g := NewMockGenerator("ok")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := g.Generate(ctx, "prompt")
			assert.NoError(t, err)
			assert.Equal(t, "ok", out)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, g.CallCount())
	assert.Len(t, g.Prompts(), 10)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)
	assert.NotNil(t, p.Embedder())
	assert.NotNil(t, p.Generator())
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.NoError(t, p.Close())
}
