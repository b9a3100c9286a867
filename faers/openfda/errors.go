package openfda

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/poiesic/pedsafe/resilience"
)

var (
	// ErrDrugNameRequired indicates FetchReports was called with a blank drug name.
	ErrDrugNameRequired = errors.New("drug name is required")

	// ErrInvalidOption indicates an option value out of range.
	ErrInvalidOption = errors.New("invalid openfda option")
)

// HTTPStatusError is returned for non-2xx responses other than 404.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "openfda status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("openfda status: %s", e.Status)
	}
	return fmt.Sprintf("openfda status: %s: %s", e.Status, strings.TrimSpace(e.Body))
}

// classify marks throttling, server errors, timeouts and network failures as retryable.
func classify(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if resilience.RetryableStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
