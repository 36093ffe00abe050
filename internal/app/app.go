// Package app initializes and holds long-lived application services, acting as a dependency
// injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/artifact"
	"github.com/mshayan3/vlrscrape/internal/clock"
	"github.com/mshayan3/vlrscrape/internal/collector"
	"github.com/mshayan3/vlrscrape/internal/config"
	"github.com/mshayan3/vlrscrape/internal/crawler"
	"github.com/mshayan3/vlrscrape/internal/fetch"
	"github.com/mshayan3/vlrscrape/internal/id"
	"github.com/mshayan3/vlrscrape/internal/identity"
	"github.com/mshayan3/vlrscrape/internal/ingest"
	"github.com/mshayan3/vlrscrape/internal/logging"
	"github.com/mshayan3/vlrscrape/internal/metrics"
	"github.com/mshayan3/vlrscrape/internal/policy/ratelimit"
	"github.com/mshayan3/vlrscrape/internal/store"
	"github.com/mshayan3/vlrscrape/internal/store/postgres"
	"github.com/mshayan3/vlrscrape/internal/store/sqlite"
)

// Crawler is the crawl surface the commands drive.
type Crawler interface {
	CrawlGlobal(ctx context.Context) (crawler.Summary, error)
	CrawlEvent(ctx context.Context, eventURL string) (crawler.Summary, error)
	CrawlMatch(ctx context.Context, matchURL, stageDir string) (collector.Result, error)
}

// Loader is the ingest surface the commands drive.
type Loader interface {
	LoadTree(ctx context.Context, root string) (ingest.Summary, error)
}

// CrawlOptions are per-invocation overrides of the crawl configuration.
type CrawlOptions struct {
	StartPage int
	EndPage   int
	Resume    bool
	Skip      []string
}

// Option customizes an App, mostly to substitute collaborators in tests.
type Option func(*App)

// WithStore uses s instead of opening the configured backend.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithFetcher replaces the HTTP gateway.
func WithFetcher(f fetch.Fetcher) Option {
	return func(a *App) { a.fetcher = f }
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithLogger replaces the configured logger. The run id is still attached.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.logger = l }
}

// App holds the shared, long-lived services of one CLI run.
type App struct {
	cfg     config.Config
	runID   string
	logger  *zap.Logger
	fetcher fetch.Fetcher
	clock   clock.Clock

	storeMu sync.Mutex
	store   store.Store

	stopMetrics context.CancelFunc
	metricsDone chan struct{}
}

// New builds the container for command. The relational store is opened lazily on first
// use, so crawl commands never touch the database.
func New(ctx context.Context, cfg config.Config, command string, opts ...Option) (*App, error) {
	runID, err := id.NewRunID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	a := &App{cfg: cfg, runID: runID, clock: clock.System{}}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		base, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		a.logger = base
	}
	a.logger = logging.WithRun(a.logger, runID, command)

	if a.fetcher == nil {
		limiter := ratelimit.New(ratelimit.Config{MinInterval: cfg.Fetch.MinInterval})
		gw, err := fetch.New(fetch.Config{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.Timeout,
			Retry:     cfg.Fetch.RetryPolicy(),
		}, limiter, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init fetch gateway: %w", err)
		}
		a.fetcher = gw
	}

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(ctx)
	}
	a.logger.Debug("application services initialized")
	return a, nil
}

func (a *App) serveMetrics(ctx context.Context) {
	mctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopMetrics = cancel
	a.metricsDone = make(chan struct{})
	go func() {
		defer close(a.metricsDone)
		if err := metrics.Serve(mctx, a.cfg.Metrics.Addr, a.logger); err != nil {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// RunID returns the identifier attached to every log entry of this run.
func (a *App) RunID() string {
	return a.runID
}

// Store returns the relational store, opening the configured backend on first use.
func (a *App) Store(ctx context.Context) (store.Store, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	s, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	a.logger.Info("store opened", zap.String("driver", a.cfg.Store.Driver))
	a.store = s
	return s, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, postgres.Config{DSN: cfg.DSN, MaxConns: int32(cfg.MaxConns)})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sqlite.Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// Crawler wires a crawl engine writing under crawl.output_dir.
func (a *App) Crawler(opts CrawlOptions) (Crawler, error) {
	skip, err := collector.ParseSkip(opts.Skip)
	if err != nil {
		return nil, err
	}
	artifacts, err := artifact.NewStore(a.cfg.Crawl.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("open output dir: %w", err)
	}
	mc := collector.NewMatchCollector(a.fetcher, artifacts, a.logger, collector.Options{
		Skip:   skip,
		Resume: opts.Resume,
	})
	engine, err := crawler.New(crawler.Config{
		BaseURL:     a.cfg.Fetch.BaseURL,
		EventsPath:  a.cfg.Crawl.EventsPath,
		StartPage:   opts.StartPage,
		EndPage:     opts.EndPage,
		Concurrency: a.cfg.Crawl.Concurrency,
	}, a.fetcher, mc, artifacts, a.clock, a.logger)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// DefaultCrawlOptions returns the crawl options implied by the configuration.
func (a *App) DefaultCrawlOptions() CrawlOptions {
	return CrawlOptions{
		StartPage: a.cfg.Crawl.StartPage,
		EndPage:   a.cfg.Crawl.EndPage,
		Resume:    a.cfg.Crawl.Resume,
		Skip:      a.cfg.Crawl.Skip,
	}
}

// Loader wires an ingest loader over the store with a fresh identity registry.
func (a *App) Loader(ctx context.Context) (Loader, error) {
	s, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	reg := identity.NewRegistry(a.cfg.Identity.Aliases...)
	l, err := ingest.New(s, reg, ingest.Config{
		Workers: a.cfg.Ingest.Workers,
		Event:   ingest.EventDefault{Name: a.cfg.Ingest.Event.Name, Year: a.cfg.Ingest.Event.Year},
	}, a.logger)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Close shuts down every service the container opened. It is called by a Cobra hook after
// the command finishes.
func (a *App) Close() {
	if a.stopMetrics != nil {
		a.stopMetrics()
		<-a.metricsDone
	}
	a.storeMu.Lock()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("error closing store", zap.Error(err))
		}
		a.store = nil
	}
	a.storeMu.Unlock()
	_ = a.logger.Sync()
}
