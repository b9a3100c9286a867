package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/pedsafe/ai"
	"github.com/poiesic/pedsafe/core"
)

var (
	// ErrGeneratorRequired is returned when no generator is supplied.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrMissingKey indicates the model's object lacks "concept" or "filters".
	ErrMissingKey = errors.New("missing key in model response")

	// ErrEmptyConcept indicates the model returned a blank concept.
	ErrEmptyConcept = errors.New("empty concept")
)

// Deconstructor splits a question into a search concept and filter tokens
// using a language model. It never fails: any problem with the model call
// or its output yields core.FallbackQuery.
type Deconstructor struct {
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures a Deconstructor.
type Option func(*Deconstructor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deconstructor) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDeconstructor creates a deconstructor backed by generator.
func NewDeconstructor(generator ai.Generator, opts ...Option) (*Deconstructor, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	d := &Deconstructor{
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "query-deconstructor")

	return d, nil
}

// Deconstruct issues exactly one generation call for userQuery.
func (d *Deconstructor) Deconstruct(ctx context.Context, userQuery string) core.ParsedQuery {
	response, err := d.generator.Generate(ctx, buildPrompt(userQuery))
	if err != nil {
		d.logger.Warn("query deconstruction failed, using full query", "err", err)
		return core.FallbackQuery(userQuery)
	}

	parsed, err := Parse(response)
	if err != nil {
		d.logger.Warn("could not parse model response, using full query", "response", response, "err", err)
		return core.FallbackQuery(userQuery)
	}

	d.logger.Debug("deconstructed query", "concept", parsed.Concept, "filters", parsed.Filters)
	return parsed
}

// Parse extracts a ParsedQuery from raw model text. Both keys must be
// present and the concept non-blank. Filters are lower-cased, trimmed and
// de-duplicated in order.
func Parse(response string) (core.ParsedQuery, error) {
	text := stripFences(response)
	if text == "" {
		return core.ParsedQuery{}, ErrEmptyResponse
	}
	text = repairJSON(extractJSONObject(text))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return core.ParsedQuery{}, err
	}

	rawConcept, ok := fields["concept"]
	if !ok {
		return core.ParsedQuery{}, fmt.Errorf("%w: concept", ErrMissingKey)
	}
	rawFilters, ok := fields["filters"]
	if !ok || string(rawFilters) == "null" {
		return core.ParsedQuery{}, fmt.Errorf("%w: filters", ErrMissingKey)
	}

	var concept string
	if err := json.Unmarshal(rawConcept, &concept); err != nil {
		return core.ParsedQuery{}, fmt.Errorf("concept: %w", err)
	}
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return core.ParsedQuery{}, ErrEmptyConcept
	}

	var tokens []string
	if err := json.Unmarshal(rawFilters, &tokens); err != nil {
		return core.ParsedQuery{}, fmt.Errorf("filters: %w", err)
	}

	filters := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		filters = append(filters, tok)
	}

	return core.ParsedQuery{Concept: concept, Filters: filters}, nil
}
