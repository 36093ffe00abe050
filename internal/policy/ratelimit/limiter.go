// Package ratelimit enforces a minimum interval between outbound requests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/mshayan3/vlrscrape/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	// MinInterval is the smallest allowed gap between two requests. Zero disables limiting.
	MinInterval time.Duration
}

// Limiter is a single-lane token bucket with burst 1, so tokens are released no faster
// than one per MinInterval regardless of how many goroutines call Wait.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Inf
	if cfg.MinInterval > 0 {
		r = rate.Every(cfg.MinInterval)
	}
	return &Limiter{
		limiter:  rate.NewLimiter(r, 1),
		interval: cfg.MinInterval,
	}
}

// Interval reports the configured minimum gap.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the next request slot, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveLimiterWait(waited)
	}
	return nil
}
