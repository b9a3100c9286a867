package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/pedsafe/ai"
	"github.com/poiesic/pedsafe/core"
	"github.com/poiesic/pedsafe/faers"
	"github.com/poiesic/pedsafe/filter"
	"github.com/poiesic/pedsafe/index"
	"github.com/poiesic/pedsafe/query"
)

// DefaultTopK is the number of reaction terms kept by semantic search.
const DefaultTopK = 10

// Result is the outcome of one question against a knowledge base.
type Result struct {
	Query    core.ParsedQuery   `json:"query"`
	Matches  []Match            `json:"matches"`
	Evidence []core.EventRecord `json:"evidence"`
	Degraded bool               `json:"degraded"`
	Stages   filter.Stages      `json:"stages"`
}

// Retriever builds knowledge bases and answers questions against them by
// combining semantic search over reaction terms with structured filters.
type Retriever struct {
	embedder      ai.Embedder
	deconstructor *query.Deconstructor
	topK          int
	monitor       Monitor
	logger        *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTopK sets how many reaction terms semantic search keeps.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return fmt.Errorf("top k must be positive, got %d", k)
		}
		r.topK = k
		return nil
	}
}

// WithMonitor sets the monitor used by Retrieve.
func WithMonitor(monitor Monitor) Option {
	return func(r *Retriever) error {
		r.monitor = monitor
		return nil
	}
}

// NewRetriever creates a retriever using the provider's embedder and generator.
func NewRetriever(provider ai.AIProvider, opts ...Option) (*Retriever, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	r := &Retriever{
		embedder: provider.Embedder(),
		topK:     DefaultTopK,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	deconstructor, err := query.NewDeconstructor(provider.Generator(), query.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	r.deconstructor = deconstructor
	r.logger = r.logger.With("component", "retriever")

	return r, nil
}

// BuildKnowledgeBase normalizes raw reports and indexes their reaction terms.
// It returns ErrNoRecords when nothing is extractable. An embedding failure
// is not an error: the knowledge base comes back with a nil Index and
// IndexErr set.
func (r *Retriever) BuildKnowledgeBase(ctx context.Context, raw []json.RawMessage) (*KnowledgeBase, error) {
	normalized := faers.Normalize(raw, faers.WithLogger(r.logger))
	if len(normalized.Records) == 0 {
		return nil, fmt.Errorf("%w: %d reports, %d malformed, %d without primary suspect",
			ErrNoRecords, normalized.Stats.Reports, normalized.Stats.Malformed, normalized.Stats.NoPrimarySuspect)
	}

	kb := &KnowledgeBase{
		Records:     normalized.Records,
		Catalog:     normalized.Catalog,
		Stats:       normalized.Stats,
		Fingerprint: normalized.Catalog.Fingerprint(),
	}

	idx, err := index.Build(ctx, r.embedder, kb.Catalog, r.logger)
	if err != nil {
		r.logger.Warn("reaction index unavailable, continuing in degraded mode", "terms", len(kb.Catalog), "err", err)
		kb.IndexErr = err
		return kb, nil
	}
	kb.Index = idx

	return kb, nil
}

// Retrieve resolves question into the evidence subset of kb for drug.
// It fails only for caller errors: a missing or empty knowledge base, or a
// blank drug name. Empty evidence is a valid result.
func (r *Retriever) Retrieve(ctx context.Context, question string, kb *KnowledgeBase, drug string) (*Result, error) {
	return r.RetrieveWithMonitor(ctx, question, kb, drug, r.monitor)
}

// RetrieveWithMonitor is Retrieve with a per-call monitor.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, question string, kb *KnowledgeBase, drug string, monitor Monitor) (*Result, error) {
	if !kb.usable() {
		return nil, ErrNoKnowledgeBase
	}
	if strings.TrimSpace(drug) == "" {
		return nil, ErrDrugNameRequired
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(question, drug)

	// 1. Split the question into concept and filters
	parsed := r.deconstructor.Deconstruct(ctx, question)
	monitor.AfterDeconstruction(parsed)

	// 2. Narrow the catalog semantically
	matches, degraded := r.semanticSearch(ctx, parsed.Concept, kb)
	monitor.AfterSemanticSearch(matches, degraded)

	reactions := make([]string, len(matches))
	for i, m := range matches {
		reactions[i] = m.Reaction
	}

	// 3. Apply drug and structured filters
	evidence, stages := filter.Apply(kb.Records, reactions, drug, parsed.Filters)
	monitor.AfterFilter(stages)

	result := &Result{
		Query:    parsed,
		Matches:  matches,
		Evidence: evidence,
		Degraded: degraded,
		Stages:   stages,
	}

	r.logger.Info("retrieved evidence",
		"concept", parsed.Concept,
		"filters", parsed.Filters,
		"matches", len(matches),
		"evidence", len(evidence),
		"degraded", degraded)

	monitor.Finish(result)
	return result, nil
}
