package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/pedsafe/resilience"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the openFDA drug adverse event endpoint.
const DefaultBaseURL = "https://api.fda.gov/drug/event.json"

// MaxPageSize is the largest limit openFDA accepts per request.
const MaxPageSize = 1000

// Client fetches raw adverse event reports from openFDA.
// Pages are fetched concurrently on a bounded worker pool and reassembled in
// page order. Call Release when done to free the pool.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	daysBack    int
	reportLimit int
	pageSize    int
	timeout     time.Duration
	now         func() time.Time
	progress    func(fetched, total int)

	pool     *ants.Pool
	limiter  *rate.Limiter
	executor *resilience.Executor
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL overrides the endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) error {
		c.baseURL = url
		return nil
	}
}

// WithAPIKey sets the optional openFDA api_key parameter.
func WithAPIKey(key string) Option {
	return func(c *Client) error {
		c.apiKey = key
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client != nil {
			c.httpClient = client
		}
		return nil
	}
}

// WithDaysBack sets the size of the receipt date window ending now.
// Default is 365.
func WithDaysBack(days int) Option {
	return func(c *Client) error {
		if days < 1 {
			return fmt.Errorf("%w: days back must be positive, got %d", ErrInvalidOption, days)
		}
		c.daysBack = days
		return nil
	}
}

// WithReportLimit sets the maximum number of reports fetched per drug.
// Default is 100.
func WithReportLimit(limit int) Option {
	return func(c *Client) error {
		if limit < 1 {
			return fmt.Errorf("%w: report limit must be positive, got %d", ErrInvalidOption, limit)
		}
		c.reportLimit = limit
		return nil
	}
}

// WithPageSize sets the per-request limit. Default is 100, maximum MaxPageSize.
func WithPageSize(size int) Option {
	return func(c *Client) error {
		if size < 1 || size > MaxPageSize {
			return fmt.Errorf("%w: page size must be in [1, %d], got %d", ErrInvalidOption, MaxPageSize, size)
		}
		c.pageSize = size
		return nil
	}
}

// WithWorkers sets the number of pages fetched concurrently. Default is 2.
func WithWorkers(size int) Option {
	return func(c *Client) error {
		if size < 1 {
			size = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithRequestsPerMinute bounds the request rate. Default is 240.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) error {
		if rpm < 1 {
			return fmt.Errorf("%w: requests per minute must be positive, got %d", ErrInvalidOption, rpm)
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		return nil
	}
}

// WithTimeout bounds each HTTP request. Default is 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidOption, timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithResilience replaces the retry and circuit breaker settings.
func WithResilience(cfg resilience.Config) Option {
	return func(c *Client) error {
		c.executor = resilience.NewExecutor(cfg, resilience.WithLogger(c.logger))
		return nil
	}
}

// WithClock sets the time source used to compute the date window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		if now != nil {
			c.now = now
		}
		return nil
	}
}

// WithProgress registers a callback invoked after each page with the number
// of reports fetched so far and the number expected.
func WithProgress(fn func(fetched, total int)) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a report client with defaults matching the public API limits.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{},
		daysBack:    365,
		reportLimit: 100,
		pageSize:    100,
		timeout:     30 * time.Second,
		now:         time.Now,
		limiter:     rate.NewLimiter(rate.Limit(240.0/60.0), 1),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}

	if c.pool == nil {
		pool, err := ants.NewPool(2)
		if err != nil {
			return nil, err
		}
		c.pool = pool
	}
	if c.executor == nil {
		c.executor = resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithLogger(c.logger))
	}
	c.logger = c.logger.With("component", "openfda")

	return c, nil
}

// Release frees the worker pool.
func (c *Client) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// searchResponse is the openFDA envelope. Results are kept raw for the normalizer.
type searchResponse struct {
	Meta struct {
		Results struct {
			Skip  int `json:"skip"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"results"`
	} `json:"meta"`
	Results []json.RawMessage `json:"results"`
}

// FetchReports returns up to the report limit of pediatric reports naming
// drug within the configured window. No matching reports yields an empty
// slice and a nil error.
func (c *Client) FetchReports(ctx context.Context, drug string) ([]json.RawMessage, error) {
	if strings.TrimSpace(drug) == "" {
		return nil, ErrDrugNameRequired
	}

	end := c.now()
	start := end.AddDate(0, 0, -c.daysBack)
	search := SearchQuery(drug, start, end)

	pages := planPages(c.reportLimit, c.pageSize)
	c.logger.Info("fetching reports", "drug", drug, "search", search, "limit", c.reportLimit, "pages", len(pages))

	// The first page tells us how many reports exist, so later pages beyond
	// the total are never requested.
	first, err := c.fetchPage(ctx, search, pages[0])
	if err != nil {
		return nil, err
	}
	if first == nil || len(first.Results) == 0 {
		c.reportProgress(0, 0)
		return []json.RawMessage{}, nil
	}

	total := min(c.reportLimit, max(first.Meta.Results.Total, len(first.Results)))
	remaining := make([]pageRequest, 0, len(pages)-1)
	for _, p := range pages[1:] {
		if p.skip < total {
			remaining = append(remaining, p)
		}
	}

	results := make([][]json.RawMessage, len(remaining)+1)
	results[0] = first.Results

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fetched  = len(first.Results)
		firstErr error
	)
	c.reportProgress(fetched, total)

	for i, p := range remaining {
		wg.Add(1)
		submitErr := c.pool.Submit(func() {
			defer wg.Done()
			page, err := c.fetchPage(ctx, search, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if page != nil {
				results[i+1] = page.Results
				fetched += len(page.Results)
			}
			c.reportProgress(min(fetched, total), total)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	reports := make([]json.RawMessage, 0, total)
	for _, page := range results {
		reports = append(reports, page...)
	}
	if len(reports) > c.reportLimit {
		reports = reports[:c.reportLimit]
	}

	c.logger.Info("fetched reports", "drug", drug, "reports", len(reports), "available", first.Meta.Results.Total)
	return reports, nil
}

func (c *Client) reportProgress(fetched, total int) {
	if c.progress != nil {
		c.progress(fetched, total)
	}
}

// fetchPage requests one page. A 404 means no matches and returns nil, nil.
func (c *Client) fetchPage(ctx context.Context, search string, p pageRequest) (*searchResponse, error) {
	var page *searchResponse
	err := c.executor.Execute(ctx, "openfda.search", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.get(ctx, c.pageURL(search, p))
		if err != nil {
			return err
		}
		page = resp
		return nil
	}, classify)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d (skip %d): %w", p.index, p.skip, err)
	}
	return page, nil
}

func (c *Client) pageURL(search string, p pageRequest) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("?search=")
	b.WriteString(searchEscaper.Replace(search))
	fmt.Fprintf(&b, "&limit=%d", p.limit)
	if p.skip > 0 {
		fmt.Fprintf(&b, "&skip=%d", p.skip)
	}
	if c.apiKey != "" {
		b.WriteString("&api_key=")
		b.WriteString(c.apiKey)
	}
	return b.String()
}

func (c *Client) get(ctx context.Context, url string) (*searchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("no matching reports", "url", url)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode openfda response: %w", err)
	}
	return &out, nil
}
