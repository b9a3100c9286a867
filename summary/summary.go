// Package summary turns an evidence subset into an audience-specific
// narrative using a language model.
package summary

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

// NoDataMessage is returned without a model call when the evidence is empty.
const NoDataMessage = "No specific data was found for this query. This could mean no adverse events matching your criteria have been reported."

// DefaultMaxRecords is how many evidence records are shown to the model.
const DefaultMaxRecords = 20

// Audience selects the register of the summary.
type Audience string

const (
	AudienceParent       Audience = "Parent / Caregiver"
	AudienceProfessional Audience = "Medical Professional"
)

var (
	// ErrGeneratorRequired is returned when no generator is supplied.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrUnknownAudience indicates an audience label that cannot be parsed.
	ErrUnknownAudience = errors.New("unknown audience")

	// ErrSummaryFailed wraps generator failures.
	ErrSummaryFailed = errors.New("summary generation failed")
)

// ParseAudience accepts either full label case-insensitively or the short
// forms parent, caregiver, professional and clinician. Blank input selects
// the parent audience.
func ParseAudience(s string) (Audience, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "parent", "caregiver", strings.ToLower(string(AudienceParent)):
		return AudienceParent, nil
	case "professional", "clinician", strings.ToLower(string(AudienceProfessional)):
		return AudienceProfessional, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAudience, s)
	}
}

const summaryPromptTemplate = `You are a skilled medical communicator. Your audience is: **%s**. Based *only* on the following JSON data of reported adverse events, write a concise and helpful summary. Do not use any outside knowledge. If the data is sparse, say so. Structure your response clearly.
Context data:
%s

Summary:`

// Summarizer writes evidence summaries.
type Summarizer struct {
	generator  ai.Generator
	maxRecords int
	logger     *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithMaxRecords caps the evidence sample sent to the model.
func WithMaxRecords(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSummarizer creates a summarizer backed by generator.
func NewSummarizer(generator ai.Generator, opts ...Option) (*Summarizer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	s := &Summarizer{
		generator:  generator,
		maxRecords: DefaultMaxRecords,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "summarizer")
	return s, nil
}

// Summarize returns NoDataMessage for empty evidence. Otherwise it sends the
// first records as JSON with audience-specific instructions and returns the
// trimmed response.
func (s *Summarizer) Summarize(ctx context.Context, evidence []core.EventRecord, audience Audience) (string, error) {
	if len(evidence) == 0 {
		return NoDataMessage, nil
	}

	sample := evidence[:min(len(evidence), s.maxRecords)]
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "", err
	}

	s.logger.Debug("generating summary", "audience", audience, "records", len(sample), "evidence", len(evidence))
	text, err := s.generator.Generate(ctx, fmt.Sprintf(summaryPromptTemplate, audience, data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}
	return strings.TrimSpace(text), nil
}
