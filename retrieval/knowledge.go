package retrieval

import (
	"github.com/poiesic/pedsafe/core"
	"github.com/poiesic/pedsafe/faers"
	"github.com/poiesic/pedsafe/index"
)

// KnowledgeBase is the searchable form of one drug's reports. It is built
// once per analysis and never mutated afterwards.
type KnowledgeBase struct {
	Records []core.EventRecord
	Catalog core.ReactionCatalog

	// Index holds one vector per catalog entry. Nil in degraded mode.
	Index *index.FlatIndex

	// IndexErr explains why Index is nil.
	IndexErr error

	Stats       faers.Stats
	Fingerprint core.ID
}

// Degraded reports whether semantic search is unavailable.
func (kb *KnowledgeBase) Degraded() bool {
	return kb.Index == nil
}

// usable reports whether Retrieve can run against kb. An index must hold
// exactly one vector per catalog term.
func (kb *KnowledgeBase) usable() bool {
	if kb == nil || len(kb.Records) == 0 || len(kb.Catalog) == 0 {
		return false
	}
	return kb.Index == nil || kb.Index.Len() == len(kb.Catalog)
}
