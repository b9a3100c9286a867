package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/pedsafe/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers the two OpenAI-compatible endpoints the provider uses.
func fakeServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var req struct {
				Input []string `json:"input"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			data := make([]map[string]any, len(req.Input))
			for i := range req.Input {
				data[i] = map[string]any{
					"object":    "embedding",
					"index":     i,
					"embedding": []float32{float32(i + 1), 0, 0},
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   data,
				"model":  "embeddinggemma",
				"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
			})
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   "qwen2.5:3b",
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "hello there"},
					"finish_reason": "stop",
				}},
				"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestProvider(t *testing.T) {
	srv := fakeServer(t, 0)
	defer srv.Close()

	provider, err := NewProvider(ai.NewConfig(ai.WithHost(srv.URL)))
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()

	t.Run("embed documents keeps order", func(t *testing.T) {
		vectors, err := provider.Embedder().EmbedDocuments(ctx, []string{"rash", "fever"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, float32(1), vectors[0][0])
		assert.Equal(t, float32(2), vectors[1][0])
	})

	t.Run("embed query", func(t *testing.T) {
		vector, err := provider.Embedder().EmbedQuery(ctx, "skin problems")
		require.NoError(t, err)
		assert.Len(t, vector, 3)
	})

	t.Run("generate", func(t *testing.T) {
		text, err := provider.Generator().Generate(ctx, "say hello")
		require.NoError(t, err)
		assert.Equal(t, "hello there", text)
	})
}

func TestProvider_Timeout(t *testing.T) {
	srv := fakeServer(t, 500*time.Millisecond)
	defer srv.Close()

	provider, err := NewProvider(ai.NewConfig(
		ai.WithHost(srv.URL),
		ai.WithRequestTimeout(50*time.Millisecond),
	))
	require.NoError(t, err)

	_, err = provider.Generator().Generate(context.Background(), "slow")
	assert.Error(t, err)

	_, err = provider.Embedder().EmbedQuery(context.Background(), "slow")
	assert.Error(t, err)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{})
	require.Error(t, err)
}
