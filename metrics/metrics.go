// Package metrics exposes Prometheus instrumentation for analyses, the
// retrieval pipeline and the HTTP server on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/pedsafe/core"
	"github.com/poiesic/pedsafe/filter"
	"github.com/poiesic/pedsafe/retrieval"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pedsafe"

// Metrics holds every collector. It also implements retrieval.Monitor.
type Metrics struct {
	registry *prometheus.Registry

	analysesTotal        *prometheus.CounterVec
	analysisDuration     *prometheus.HistogramVec
	knowledgeBasesTotal  *prometheus.CounterVec
	knowledgeBaseRecords prometheus.Histogram

	retrievalsInFlight    prometheus.Gauge
	deconstructionsTotal  *prometheus.CounterVec
	semanticSearchesTotal *prometheus.CounterVec
	filterStageRecords    *prometheus.HistogramVec
	evidenceRecords       prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ retrieval.Monitor = (*Metrics)(nil)

var recordBuckets = []float64{0, 1, 5, 10, 20, 50, 100, 250, 500, 1000, 5000}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Analyses run, by outcome status.",
		}, []string{"status"}),
		analysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "End-to-end analysis duration in seconds, by outcome status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"status"}),
		knowledgeBasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "knowledge_base",
			Name:      "built_total",
			Help:      "Knowledge bases built, by whether the reaction index is absent.",
		}, []string{"degraded"}),
		knowledgeBaseRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "knowledge_base",
			Name:      "records",
			Help:      "Event records per knowledge base.",
			Buckets:   recordBuckets,
		}),
		retrievalsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "in_flight",
			Help:      "Retrievals currently running.",
		}),
		deconstructionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "deconstructions_total",
			Help:      "Query deconstructions, by whether the raw question fallback was used.",
		}, []string{"fallback"}),
		semanticSearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "semantic_searches_total",
			Help:      "Semantic searches, by whether semantic narrowing was skipped.",
		}, []string{"degraded"}),
		filterStageRecords: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "filter_stage_records",
			Help:      "Records remaining after each filter stage.",
			Buckets:   recordBuckets,
		}, []string{"stage"}),
		evidenceRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "evidence_records",
			Help:      "Evidence records returned per question.",
			Buckets:   recordBuckets,
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		m.analysesTotal,
		m.analysisDuration,
		m.knowledgeBasesTotal,
		m.knowledgeBaseRecords,
		m.retrievalsInFlight,
		m.deconstructionsTotal,
		m.semanticSearchesTotal,
		m.filterStageRecords,
		m.evidenceRecords,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one finished analysis.
func (m *Metrics) ObserveAnalysis(status string, duration time.Duration) {
	m.analysesTotal.WithLabelValues(status).Inc()
	m.analysisDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveKnowledgeBase records one built knowledge base.
func (m *Metrics) ObserveKnowledgeBase(degraded bool, records int) {
	m.knowledgeBasesTotal.WithLabelValues(strconv.FormatBool(degraded)).Inc()
	m.knowledgeBaseRecords.Observe(float64(records))
}

// ObserveHTTPRequest records one served request. path should be the route
// template, not the raw URL.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) Start(_, _ string) {
	m.retrievalsInFlight.Inc()
}

func (m *Metrics) AfterDeconstruction(parsed core.ParsedQuery) {
	m.deconstructionsTotal.WithLabelValues(strconv.FormatBool(parsed.Fallback)).Inc()
}

func (m *Metrics) AfterSemanticSearch(_ []retrieval.Match, degraded bool) {
	m.semanticSearchesTotal.WithLabelValues(strconv.FormatBool(degraded)).Inc()
}

func (m *Metrics) AfterFilter(stages filter.Stages) {
	m.filterStageRecords.WithLabelValues("input").Observe(float64(stages.Input))
	m.filterStageRecords.WithLabelValues("reaction").Observe(float64(stages.ByReaction))
	m.filterStageRecords.WithLabelValues("drug").Observe(float64(stages.ByDrug))
	m.filterStageRecords.WithLabelValues("tokens").Observe(float64(stages.ByTokens))
}

func (m *Metrics) Finish(result *retrieval.Result) {
	m.retrievalsInFlight.Dec()
	if result != nil {
		m.evidenceRecords.Observe(float64(len(result.Evidence)))
	}
}
