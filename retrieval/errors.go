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


package retrieval

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrNoRecords indicates no event record could be extracted from the raw
	// reports. It is distinct from a failed embedding, which only degrades
	// the knowledge base.
	ErrNoRecords = errors.New("no event records could be extracted")

	// ErrNoKnowledgeBase indicates Retrieve was called without a usable
	// knowledge base.
	ErrNoKnowledgeBase = errors.New("no usable knowledge base")

	// ErrDrugNameRequired indicates Retrieve was called with a blank drug name.
	ErrDrugNameRequired = errors.New("drug name is required")
)
