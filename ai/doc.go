// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used by the explorer.
//
// Two capabilities are needed: text embeddings (for indexing reaction terms
// and embedding search concepts) and text generation (for deconstructing
// questions and summarizing evidence). Business logic depends on the
// interfaces defined here rather than on any concrete client.
//
// # Interfaces
//
//   - Embedder: document and query embeddings from one model
//   - Generator: single-prompt text generation
//   - AIProvider: aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Test constructors in
// ai/mock return concrete types so tests can inject behavior and assert call
// counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434/v1"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedDocuments(ctx, []string{"Rash", "Pyrexia"})
//	text, err := provider.Generator().Generate(ctx, "Summarize ...")
package ai
