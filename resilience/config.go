package resilience

import "time"

// Config controls retry backoff and circuit breaking for an Executor.
type Config struct {
	// RetryMaxAttempts is the total number of attempts, including the first.
	// Default: 3
	RetryMaxAttempts int

	// RetryInitialBackoff is the wait before the second attempt.
	// Default: 250ms
	RetryInitialBackoff time.Duration

	// RetryMaxBackoff caps the wait between attempts.
	// Default: 2s
	RetryMaxBackoff time.Duration

	// RetryMultiplier grows the wait after each failed attempt.
	// Default: 2.0
	RetryMultiplier float64

	// BreakerEnabled wraps each operation in a circuit breaker.
	BreakerEnabled bool

	// BreakerMinRequests is the request count before the failure ratio is evaluated.
	BreakerMinRequests uint32

	// BreakerFailureRatio opens the breaker once reached.
	BreakerFailureRatio float64

	// BreakerOpenTimeout is how long the breaker stays open before probing.
	BreakerOpenTimeout time.Duration

	// BreakerHalfOpenMaxCalls limits trial calls while half-open.
	BreakerHalfOpenMaxCalls uint32
}

// DefaultConfig returns the settings used for openFDA requests.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 250 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// normalize replaces unset or out-of-range values with defaults.
func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
