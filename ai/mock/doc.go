// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
// All doubles are safe for concurrent use.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedDocumentsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
//
//	generator := mock.NewMockGenerator(`{"concept": "rash", "filters": ["boys"]}`)
//	provider := mock.NewMockProviderWithServices(embedder, generator)
//
//	// Check call counts
//	count := generator.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Returns its canned Response
//   - MockProvider: Aggregates mock embedder and generator
package mock
