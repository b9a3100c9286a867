// Package httpapi exposes the explorer over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/pedsafe"
	"github.com/poiesic/pedsafe/history"
	"github.com/poiesic/pedsafe/metrics"
	"github.com/poiesic/pedsafe/retrieval"
)

const (
	// DefaultHistoryLimit is used when GET /v1/analyses has no limit parameter.
	DefaultHistoryLimit = 20
	// MaxHistoryLimit caps the limit parameter.
	MaxHistoryLimit = 500

	shutdownTimeout = 10 * time.Second
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req pedsafe.Request) (*pedsafe.Analysis, error)
}

// HistoryLister lists recorded analyses, newest first.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]*history.Entry, error)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to an Analyzer.
type Server struct {
	analyzer Analyzer
	history  HistoryLister
	metrics  *metrics.Metrics
	logger   *slog.Logger
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHistory enables GET /v1/analyses.
func WithHistory(h HistoryLister) Option {
	return func(s *Server) {
		s.history = h
	}
}

// NewServer builds the router.
func NewServer(analyzer Analyzer, opts ...Option) *Server {
	s := &Server{
		analyzer: analyzer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "httpapi")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(s.recovery(), s.observe())

	engine.GET("/healthz", s.health)
	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	v1 := engine.Group("/v1")
	v1.POST("/analyses", s.createAnalysis)
	v1.GET("/analyses", s.listAnalyses)

	s.engine = engine
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createAnalysis(c *gin.Context) {
	var req pedsafe.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body: " + err.Error()})
		return
	}

	analysis, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("analysis failed", "drug", req.Drug, "status", status, "err", err)
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) listAnalyses(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "history is not enabled"})
		return
	}

	limit := DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	entries, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("listing history failed", "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list analyses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": entries})
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pedsafe.ErrInvalidRequest), errors.Is(err, retrieval.ErrDrugNameRequired):
		return http.StatusBadRequest
	case errors.Is(err, pedsafe.ErrNoReports):
		return http.StatusNotFound
	case errors.Is(err, retrieval.ErrNoRecords), errors.Is(err, retrieval.ErrNoKnowledgeBase):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pedsafe.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
