package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/metrics"
)

// Limiter gates each outbound attempt.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Fetcher is the behaviour crawlers and collectors depend on.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Response, error)
}

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Retry     RetryPolicy
}

// Response is a successful (2xx) page retrieval.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Gateway implements Fetcher using the Colly collector.
type Gateway struct {
	cfg           Config
	limiter       Limiter
	baseCollector *colly.Collector
	logger        *zap.Logger
	sleep         func(context.Context, time.Duration) error
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Gateway. The limiter is shared by everything holding this gateway.
func New(cfg Config, limiter Limiter, logger *zap.Logger) (*Gateway, error) {
	if limiter == nil {
		return nil, errors.New("fetch limiter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(newHTTPTransport())
	// Clones share the base http.Client, so the timeout is set here only.
	c.SetRequestTimeout(cfg.Timeout)

	return &Gateway{
		cfg:           cfg,
		limiter:       limiter,
		baseCollector: c,
		logger:        logger,
		sleep:         sleepContext,
	}, nil
}

// Fetch retrieves rawURL, retrying per the configured policy.
func (g *Gateway) Fetch(ctx context.Context, rawURL string) (Response, error) {
	for attempt := 1; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return Response{}, &FetchError{URL: rawURL, Attempts: attempt - 1, Err: err}
		}

		resp, err := g.attempt(ctx, rawURL)
		if err == nil {
			metrics.ObserveFetch(rawURL, resp.StatusCode)
			return resp, nil
		}
		code := statusOf(err)
		metrics.ObserveFetch(rawURL, code)

		if !g.cfg.Retry.ShouldRetry(err, attempt) {
			return Response{}, &FetchError{URL: rawURL, StatusCode: code, Attempts: attempt, Err: err}
		}
		wait := g.cfg.Retry.Backoff(err, attempt)
		g.logger.Warn("fetch attempt failed; retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Int("status", code),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		metrics.ObserveRetry(retryReason(err))
		if err := g.sleep(ctx, wait); err != nil {
			return Response{}, &FetchError{URL: rawURL, StatusCode: code, Attempts: attempt, Err: err}
		}
	}
}

func (g *Gateway) attempt(ctx context.Context, rawURL string) (Response, error) {
	var (
		result   Response
		fetchErr error
	)
	collector := g.buildCollector(time.Now(), &result, &fetchErr)
	if err := runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return Response{}, err
	}
	return result, nil
}

func (g *Gateway) buildCollector(start time.Time, result *Response, fetchErr *error) *colly.Collector {
	collector := g.baseCollector.Clone()
	if g.cfg.UserAgent != "" {
		collector.UserAgent = g.cfg.UserAgent
	}
	configureCollectorHooks(collector, start, result, fetchErr)
	return collector
}

func configureCollectorHooks(hooks collectorHooks, start time.Time, result *Response, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		code := 0
		if r != nil {
			code = r.StatusCode
		}
		*fetchErr = &statusError{code: code, err: err}
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return *fetchErr
		}
		if err != nil {
			return &statusError{err: fmt.Errorf("colly visit failed: %w", err)}
		}
		return nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry backoff canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
}
