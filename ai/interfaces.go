package ai

import "context"

// Embedder generates vector embeddings for semantic similarity search.
// The two methods correspond to the document and query task types of the
// underlying model; vectors from both must live in the same space.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedDocuments generates embeddings for a batch of texts in one call.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates the embedding for a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces free text from a prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends a single prompt and returns the model's text response.
	Generate(ctx context.Context, prompt string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
