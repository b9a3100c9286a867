package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/pedsafe/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)

func testClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithBaseURL(srv.URL),
		WithClock(func() time.Time { return fixedNow }),
		WithRequestsPerMinute(600000),
		WithResilience(resilience.Config{
			RetryMaxAttempts:    3,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     2 * time.Millisecond,
		}),
	}
	c, err := NewClient(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

// reportServer serves total numbered reports, honoring limit and skip.
func reportServer(t *testing.T, total int, delay func(skip int) time.Duration) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		skip, _ := strconv.Atoi(q.Get("skip"))
		if delay != nil {
			time.Sleep(delay(skip))
		}
		if skip >= total {
			http.NotFound(w, r)
			return
		}
		results := make([]map[string]string, 0, limit)
		for i := skip; i < min(skip+limit, total); i++ {
			results = append(results, map[string]string{"safetyreportid": strconv.Itoa(i)})
		}
		body := map[string]any{
			"meta":    map[string]any{"results": map[string]int{"skip": skip, "limit": limit, "total": total}},
			"results": results,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func reportIDs(t *testing.T, reports []json.RawMessage) []string {
	t.Helper()
	ids := make([]string, len(reports))
	for i, r := range reports {
		var v struct {
			ID string `json:"safetyreportid"`
		}
		require.NoError(t, json.Unmarshal(r, &v))
		ids[i] = v.ID
	}
	return ids
}

func TestSearchQuery(t *testing.T) {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	q := SearchQuery(" Amoxicillin ", start, fixedNow)
	assert.Equal(t,
		`patient.drug.medicinalproduct:"amoxicillin"+AND+receiptdate:[20240105+TO+20250104]+AND+patient.patientonsetage:[0+TO+17]`,
		q)
}

func TestPlanPages(t *testing.T) {
	pages := planPages(250, 100)
	require.Len(t, pages, 3)
	assert.Equal(t, pageRequest{index: 0, skip: 0, limit: 100}, pages[0])
	assert.Equal(t, pageRequest{index: 2, skip: 200, limit: 50}, pages[2])

	assert.Len(t, planPages(100, 100), 1)
}

func TestClient_FetchReports(t *testing.T) {
	t.Run("single page request shape", func(t *testing.T) {
		var rawQuery string
		var mu sync.Mutex
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			rawQuery = r.URL.RawQuery
			mu.Unlock()
			fmt.Fprint(w, `{"meta": {"results": {"total": 1}}, "results": [{"safetyreportid": "1"}]}`)
		}))
		defer srv.Close()

		c := testClient(t, srv, WithAPIKey("k"))
		reports, err := c.FetchReports(context.Background(), "Amoxicillin")
		require.NoError(t, err)
		assert.Len(t, reports, 1)

		mu.Lock()
		defer mu.Unlock()
		assert.Contains(t, rawQuery, "search=patient.drug.medicinalproduct:%22amoxicillin%22+AND+receiptdate:%5B20240105+TO+20250104%5D")
		assert.Contains(t, rawQuery, "&limit=100")
		assert.Contains(t, rawQuery, "&api_key=k")
		assert.NotContains(t, rawQuery, "skip=")
	})

	t.Run("pages reassembled in order", func(t *testing.T) {
		// Earlier pages answer last.
		srv, _ := reportServer(t, 50, func(skip int) time.Duration {
			return time.Duration(50-skip) * time.Millisecond
		})
		c := testClient(t, srv, WithReportLimit(50), WithPageSize(10), WithWorkers(4))

		reports, err := c.FetchReports(context.Background(), "ibuprofen")
		require.NoError(t, err)

		ids := reportIDs(t, reports)
		require.Len(t, ids, 50)
		for i, id := range ids {
			assert.Equal(t, strconv.Itoa(i), id)
		}
	})

	t.Run("pages beyond total are not requested", func(t *testing.T) {
		srv, calls := reportServer(t, 15, nil)
		c := testClient(t, srv, WithReportLimit(100), WithPageSize(10))

		reports, err := c.FetchReports(context.Background(), "ibuprofen")
		require.NoError(t, err)
		assert.Len(t, reports, 15)
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	})

	t.Run("404 means no reports", func(t *testing.T) {
		srv, _ := reportServer(t, 0, nil)
		c := testClient(t, srv)

		reports, err := c.FetchReports(context.Background(), "unknowndrug")
		require.NoError(t, err)
		assert.NotNil(t, reports)
		assert.Empty(t, reports)
	})

	t.Run("progress reported", func(t *testing.T) {
		srv, _ := reportServer(t, 30, nil)
		var mu sync.Mutex
		var last [2]int
		c := testClient(t, srv, WithReportLimit(30), WithPageSize(10), WithProgress(func(fetched, total int) {
			mu.Lock()
			last = [2]int{fetched, total}
			mu.Unlock()
		}))

		_, err := c.FetchReports(context.Background(), "ibuprofen")
		require.NoError(t, err)
		mu.Lock()
		assert.Equal(t, [2]int{30, 30}, last)
		mu.Unlock()
	})

	t.Run("blank drug", func(t *testing.T) {
		srv, _ := reportServer(t, 1, nil)
		c := testClient(t, srv)

		_, err := c.FetchReports(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrDrugNameRequired)
	})
}

func TestClient_Errors(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"meta": {"results": {"total": 1}}, "results": [{}]}`)
		}))
		defer srv.Close()

		c := testClient(t, srv)
		reports, err := c.FetchReports(context.Background(), "amoxicillin")
		require.NoError(t, err)
		assert.Len(t, reports, 1)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "bad search", http.StatusBadRequest)
		}))
		defer srv.Close()

		c := testClient(t, srv)
		_, err := c.FetchReports(context.Background(), "amoxicillin")

		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
		assert.Contains(t, statusErr.Error(), "bad search")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestNewClient_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "days back", opt: WithDaysBack(0)},
		{name: "report limit", opt: WithReportLimit(0)},
		{name: "page size", opt: WithPageSize(MaxPageSize + 1)},
		{name: "rate", opt: WithRequestsPerMinute(0)},
		{name: "timeout", opt: WithTimeout(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.opt)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}
