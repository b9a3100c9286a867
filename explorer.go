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


package pedsafe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/pedsafe/ai"
	"github.com/poiesic/pedsafe/core"
	"github.com/poiesic/pedsafe/faers"
	"github.com/poiesic/pedsafe/filter"
	"github.com/poiesic/pedsafe/history"
	"github.com/poiesic/pedsafe/metrics"
	"github.com/poiesic/pedsafe/retrieval"
	"github.com/poiesic/pedsafe/summary"
)

var (
	// ErrInvalidRequest indicates a request with a blank drug or question, or
	// an unknown audience.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNoReports indicates the report source returned nothing for the drug.
	ErrNoReports = errors.New("no reports found")

	// ErrUpstream indicates the report source or the summary model failed.
	ErrUpstream = errors.New("upstream failure")

	// ErrReportSourceRequired indicates NewExplorer was called without a source.
	ErrReportSourceRequired = errors.New("report source is required")
)

// Analysis outcome labels used for metrics.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusNoData   = "no_data"
	StatusError    = "error"
)

// ReportSource fetches raw adverse event reports for a drug.
type ReportSource interface {
	FetchReports(ctx context.Context, drug string) ([]json.RawMessage, error)
}

// HistoryRecorder stores completed analyses.
type HistoryRecorder interface {
	Append(ctx context.Context, entry *history.Entry) error
}

// Request is one question about one drug.
type Request struct {
	Drug     string `json:"drug"`
	Question string `json:"question"`
	Audience string `json:"audience"`
}

// Analysis is the full outcome of a Request.
type Analysis struct {
	ID          uuid.UUID          `json:"id"`
	Request     Request            `json:"request"`
	Audience    summary.Audience   `json:"audience"`
	Query       core.ParsedQuery   `json:"query"`
	Matches     []retrieval.Match  `json:"matches"`
	Evidence    []core.EventRecord `json:"evidence"`
	Summary     string             `json:"summary"`
	Degraded    bool               `json:"degraded"`
	Reports     int                `json:"reports"`
	Stats       faers.Stats        `json:"stats"`
	Stages      filter.Stages      `json:"stages"`
	Fingerprint string             `json:"fingerprint"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
}

// Explorer runs the full pipeline: fetch reports, build a knowledge base,
// retrieve evidence and summarize it.
type Explorer struct {
	source     ReportSource
	retriever  *retrieval.Retriever
	summarizer *summary.Summarizer
	metrics    *metrics.Metrics
	history    HistoryRecorder
	topK       int
	maxRecords int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Explorer.
type Option func(*Explorer) error

// WithLogger sets the logger for the explorer and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Explorer) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		e.logger = logger
		return nil
	}
}

// WithMetrics records pipeline metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Explorer) error {
		e.metrics = m
		return nil
	}
}

// WithHistory records every successful analysis.
func WithHistory(h HistoryRecorder) Option {
	return func(e *Explorer) error {
		e.history = h
		return nil
	}
}

// WithTopK sets how many reaction terms semantic search keeps.
func WithTopK(k int) Option {
	return func(e *Explorer) error {
		if k <= 0 {
			return fmt.Errorf("top k must be positive, got %d", k)
		}
		e.topK = k
		return nil
	}
}

// WithMaxSummaryRecords caps the evidence records shown to the summary model.
func WithMaxSummaryRecords(n int) Option {
	return func(e *Explorer) error {
		if n <= 0 {
			return fmt.Errorf("max summary records must be positive, got %d", n)
		}
		e.maxRecords = n
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Explorer) error {
		e.now = now
		return nil
	}
}

// NewExplorer creates an Explorer reading reports from source and using
// provider for embeddings and generation.
func NewExplorer(source ReportSource, provider ai.AIProvider, opts ...Option) (*Explorer, error) {
	if source == nil {
		return nil, ErrReportSourceRequired
	}
	if provider == nil {
		return nil, retrieval.ErrAIProviderRequired
	}

	e := &Explorer{
		source:     source,
		topK:       retrieval.DefaultTopK,
		maxRecords: summary.DefaultMaxRecords,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	retriever, err := retrieval.NewRetriever(provider,
		retrieval.WithLogger(e.logger),
		retrieval.WithTopK(e.topK))
	if err != nil {
		return nil, err
	}
	e.retriever = retriever

	summarizer, err := summary.NewSummarizer(provider.Generator(),
		summary.WithLogger(e.logger),
		summary.WithMaxRecords(e.maxRecords))
	if err != nil {
		return nil, err
	}
	e.summarizer = summarizer
	e.logger = e.logger.With("component", "explorer")

	return e, nil
}

// Analyze answers req. Empty evidence is a success carrying the no-data
// summary. A failure to record history is logged, not returned.
func (e *Explorer) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	started := e.now()
	status := StatusError
	defer func() {
		if e.metrics != nil {
			e.metrics.ObserveAnalysis(status, e.now().Sub(started))
		}
	}()

	audience, err := validateRequest(&req)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With("drug", req.Drug)

	// 1. Fetch raw reports
	raw, err := e.source.FetchReports(ctx, req.Drug)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching reports: %w", ErrUpstream, err)
	}
	if len(raw) == 0 {
		status = StatusNoData
		return nil, fmt.Errorf("%w for %q", ErrNoReports, req.Drug)
	}
	logger.Info("fetched reports", "reports", len(raw))

	// 2. Build the knowledge base
	kb, err := e.retriever.BuildKnowledgeBase(ctx, raw)
	if err != nil {
		if errors.Is(err, retrieval.ErrNoRecords) {
			status = StatusNoData
		}
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ObserveKnowledgeBase(kb.Degraded(), len(kb.Records))
	}

	// 3. Retrieve evidence
	var monitor retrieval.Monitor
	if e.metrics != nil {
		monitor = e.metrics
	}
	result, err := e.retriever.RetrieveWithMonitor(ctx, req.Question, kb, req.Drug, monitor)
	if err != nil {
		return nil, err
	}

	// 4. Summarize
	text, err := e.summarizer.Summarize(ctx, result.Evidence, audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	analysis := &Analysis{
		ID:          uuid.New(),
		Request:     req,
		Audience:    audience,
		Query:       result.Query,
		Matches:     result.Matches,
		Evidence:    result.Evidence,
		Summary:     text,
		Degraded:    result.Degraded,
		Reports:     len(raw),
		Stats:       kb.Stats,
		Stages:      result.Stages,
		Fingerprint: kb.Fingerprint.String(),
		StartedAt:   started,
		Duration:    e.now().Sub(started),
	}

	status = StatusOK
	if analysis.Degraded {
		status = StatusDegraded
	}

	e.record(ctx, analysis, len(kb.Records), logger)
	logger.Info("analysis complete",
		"id", analysis.ID,
		"evidence", len(analysis.Evidence),
		"degraded", analysis.Degraded,
		"duration", analysis.Duration)

	return analysis, nil
}

func (e *Explorer) record(ctx context.Context, a *Analysis, records int, logger *slog.Logger) {
	if e.history == nil {
		return
	}
	entry := &history.Entry{
		ID:          a.ID,
		CreatedAt:   a.StartedAt,
		Drug:        a.Request.Drug,
		Question:    a.Request.Question,
		Audience:    string(a.Audience),
		Concept:     a.Query.Concept,
		Filters:     a.Query.Filters,
		Fallback:    a.Query.Fallback,
		Degraded:    a.Degraded,
		Records:     records,
		Evidence:    len(a.Evidence),
		Fingerprint: a.Fingerprint,
		Summary:     a.Summary,
	}
	if err := e.history.Append(ctx, entry); err != nil {
		logger.Error("failed to record analysis", "id", a.ID, "err", err)
	}
}

func validateRequest(req *Request) (summary.Audience, error) {
	req.Drug = strings.TrimSpace(req.Drug)
	req.Question = strings.TrimSpace(req.Question)
	if req.Drug == "" {
		return "", fmt.Errorf("%w: drug is required", ErrInvalidRequest)
	}
	if req.Question == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	audience, err := summary.ParseAudience(req.Audience)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return audience, nil
}
