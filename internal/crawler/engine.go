package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mshayan3/vlrscrape/internal/artifact"
	"github.com/mshayan3/vlrscrape/internal/clock"
	"github.com/mshayan3/vlrscrape/internal/collector"
	"github.com/mshayan3/vlrscrape/internal/fetch"
	"github.com/mshayan3/vlrscrape/internal/metrics"
)

// Config controls the crawl.
type Config struct {
	BaseURL     string
	EventsPath  string
	StartPage   int
	EndPage     int
	Concurrency int
}

// Validate checks for obviously bad configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("fetch.base_url is required")
	}
	if c.StartPage < 1 || c.EndPage < c.StartPage {
		return fmt.Errorf("invalid page range %d..%d", c.StartPage, c.EndPage)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("crawl.concurrency must be >= 1, got %d", c.Concurrency)
	}
	return nil
}

// MatchCollector collects one match into a stage folder.
type MatchCollector interface {
	Collect(ctx context.Context, matchURL, stageDir string) (collector.Result, error)
}

// Summary counts what a crawl did.
type Summary struct {
	Events     int
	Stages     int
	Matches    int
	Collected  int
	Skipped    int
	Failed     int
	Duplicates int
}

func (s *Summary) add(o Summary) {
	s.Events += o.Events
	s.Stages += o.Stages
	s.Matches += o.Matches
	s.Collected += o.Collected
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.Duplicates += o.Duplicates
}

// Engine drives the crawl from listing pages down to matches.
type Engine struct {
	cfg       Config
	base      *url.URL
	fetcher   fetch.Fetcher
	collector MatchCollector
	store     *artifact.Store
	clock     clock.Clock
	logger    *zap.Logger
	visited   visitTracker
}

// New builds an Engine.
func New(cfg Config, f fetch.Fetcher, c MatchCollector, store *artifact.Store, clk clock.Clock, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if f == nil || c == nil || store == nil {
		return nil, errors.New("fetcher, collector and artifact store are required")
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, base: base, fetcher: f, collector: c, store: store, clock: clk, logger: logger}, nil
}

func (e *Engine) page(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	return doc, nil
}

// CrawlGlobal walks listing pages StartPage..EndPage and crawls every event found. Failing
// pages and events are logged and skipped.
func (e *Engine) CrawlGlobal(ctx context.Context) (Summary, error) {
	var sum Summary
	for n := e.cfg.StartPage; n <= e.cfg.EndPage; n++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		listing := ListingURL(e.base, e.cfg.EventsPath, n)
		doc, err := e.page(ctx, listing)
		if err != nil {
			e.logger.Warn("skipping events page", zap.Int("page", n), zap.Error(err))
			continue
		}
		events := ParseEventListing(doc, e.base)
		e.logger.Info("events page parsed", zap.Int("page", n), zap.Int("events", len(events)))
		for _, ev := range events {
			s, err := e.CrawlEvent(ctx, ev.URL)
			sum.add(s)
			if err != nil {
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				e.logger.Warn("skipping event", zap.String("event", ev.Title), zap.String("url", ev.URL), zap.Error(err))
			}
		}
	}
	return sum, nil
}

// CrawlEvent crawls every stage of one event into {year}/{event}/{stage}.
func (e *Engine) CrawlEvent(ctx context.Context, eventURL string) (Summary, error) {
	var sum Summary
	doc, err := e.page(ctx, eventURL)
	if err != nil {
		return sum, fmt.Errorf("fetch event page: %w", err)
	}
	ev := ParseEventPage(doc, e.base, eventURL, e.clock.Now())
	sum.Events = 1
	eventDir := filepath.Join(strconv.Itoa(ev.Year), ev.Folder)
	logger := e.logger.With(zap.String("event", ev.Name), zap.Int("year", ev.Year))
	logger.Info("crawling event", zap.Int("stages", len(ev.Stages)))

	info := artifact.EventInfo{Name: ev.Name, Year: ev.Year, URL: eventURL}
	if err := e.store.WriteManifest(eventDir, artifact.EventManifest, info); err != nil {
		logger.Warn("write event manifest", zap.Error(err))
	}

	for _, st := range ev.Stages {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Stages++
		listing := MatchesURL(st.URL)
		mdoc, err := e.page(ctx, listing)
		if err != nil {
			logger.Warn("skipping stage", zap.String("stage", st.Name), zap.Error(err))
			continue
		}
		urls := ParseMatchListing(mdoc, e.base)
		logger.Info("stage matches found", zap.String("stage", st.Name), zap.Int("matches", len(urls)))
		s, err := e.crawlMatches(ctx, filepath.Join(eventDir, st.Name), st.Name, urls)
		sum.add(s)
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// CrawlMatch collects a single match into stageDir.
func (e *Engine) CrawlMatch(ctx context.Context, matchURL, stageDir string) (collector.Result, error) {
	res, err := e.collector.Collect(ctx, matchURL, stageDir)
	switch {
	case err != nil:
		metrics.ObserveMatch("crawl", "failed")
	case res.Skipped:
		metrics.ObserveMatch("crawl", "skipped")
	default:
		metrics.ObserveMatch("crawl", "collected")
	}
	return res, err
}

// crawlMatches collects urls concurrently, bounded by Concurrency. A failing match is
// counted and logged; only cancellation stops the stage.
func (e *Engine) crawlMatches(ctx context.Context, stageDir, stage string, urls []string) (Summary, error) {
	var (
		mu               sync.Mutex
		sum              Summary
		queued, repeated int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, u := range urls {
		key := MatchID(u)
		if key == "" {
			key = u
		}
		if !e.visited.MarkIfNew(key) {
			repeated++
			continue
		}
		if gctx.Err() != nil {
			break
		}
		queued++
		g.Go(func() error {
			res, err := e.CrawlMatch(gctx, u, stageDir)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				sum.Failed++
				e.logger.Warn("match failed", zap.String("stage", stage), zap.String("url", u), zap.Error(err))
			case res.Skipped:
				sum.Skipped++
			default:
				sum.Collected++
				e.logger.Info("match collected", zap.String("stage", stage), zap.String("folder", res.Folder),
					zap.Int("artifacts", res.Artifacts))
			}
			return nil
		})
	}
	_ = g.Wait()
	sum.Matches = queued
	sum.Duplicates = repeated
	return sum, ctx.Err()
}
