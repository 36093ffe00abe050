package fetch

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryPolicy decides whether and how long to wait before another attempt.
type RetryPolicy struct {
	MaxAttempts      int
	Delay            time.Duration
	RateLimitBackoff time.Duration
}

// DefaultRetryPolicy mirrors the site's tolerance: three attempts, one second apart, with a
// growing pause after 429 responses.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      3,
		Delay:            time.Second,
		RateLimitBackoff: 2 * time.Second,
	}
}

// ShouldRetry reports whether another attempt is allowed after attempt (1-based) failed.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts() {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return statusOf(err) != http.StatusNotFound
}

// Backoff returns the wait before the attempt following the given failed one.
func (p RetryPolicy) Backoff(err error, attempt int) time.Duration {
	if statusOf(err) == http.StatusTooManyRequests {
		return p.RateLimitBackoff * time.Duration(attempt)
	}
	return p.Delay
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func retryReason(err error) string {
	switch code := statusOf(err); {
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code == 0:
		return "transport"
	default:
		return "status"
	}
}
