package retrieval

import (
	"context"

	"github.com/poiesic/pedsafe/index"
)

// Match is one reaction term returned by semantic search.
type Match struct {
	Reaction string  `json:"reaction"`
	Score    float32 `json:"score"`
}

// semanticSearch returns up to topK catalog terms closest to concept. When
// the index is absent, or the query cannot be embedded or searched, it
// returns the whole catalog in catalog order and reports degraded.
func (r *Retriever) semanticSearch(ctx context.Context, concept string, kb *KnowledgeBase) ([]Match, bool) {
	if kb.Index == nil {
		r.logger.Info("index absent, skipping semantic narrowing", "reason", kb.IndexErr)
		return fullCatalog(kb), true
	}

	vector, err := r.embedder.EmbedQuery(ctx, concept)
	if err != nil {
		r.logger.Warn("query embedding failed, skipping semantic narrowing", "concept", concept, "err", err)
		return fullCatalog(kb), true
	}

	hits, err := kb.Index.Search(index.NormalizeVector(vector), r.topK)
	if err != nil {
		r.logger.Warn("index search failed, skipping semantic narrowing", "concept", concept, "err", err)
		return fullCatalog(kb), true
	}

	matches := make([]Match, len(hits))
	for i, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(kb.Catalog) {
			r.logger.Warn("index hit outside catalog, skipping semantic narrowing", "position", hit.Position, "terms", len(kb.Catalog))
			return fullCatalog(kb), true
		}
		matches[i] = Match{Reaction: kb.Catalog[hit.Position], Score: hit.Score}
	}
	return matches, false
}

func fullCatalog(kb *KnowledgeBase) []Match {
	matches := make([]Match, len(kb.Catalog))
	for i, term := range kb.Catalog {
		matches[i] = Match{Reaction: term}
	}
	return matches
}
