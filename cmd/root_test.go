package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/app"
	"github.com/mshayan3/vlrscrape/internal/collector"
	"github.com/mshayan3/vlrscrape/internal/config"
	"github.com/mshayan3/vlrscrape/internal/crawler"
	"github.com/mshayan3/vlrscrape/internal/ingest"
	"github.com/mshayan3/vlrscrape/internal/store"
)

type fakeCrawler struct {
	global   crawler.Summary
	eventURL string
	matchURL string
	stageDir string
	err      error
}

func (f *fakeCrawler) CrawlGlobal(context.Context) (crawler.Summary, error) {
	return f.global, f.err
}

func (f *fakeCrawler) CrawlEvent(_ context.Context, u string) (crawler.Summary, error) {
	f.eventURL = u
	return crawler.Summary{Events: 1, Matches: 2, Collected: 2}, f.err
}

func (f *fakeCrawler) CrawlMatch(_ context.Context, u, stageDir string) (collector.Result, error) {
	f.matchURL, f.stageDir = u, stageDir
	return collector.Result{Skipped: true}, f.err
}

type fakeLoader struct {
	root string
}

func (f *fakeLoader) LoadTree(_ context.Context, root string) (ingest.Summary, error) {
	f.root = root
	return ingest.Summary{Matches: 3, Loaded: 2, Failed: 1, Rows: map[string]int{"rounds": 48, "maps": 4}}, nil
}

type fakeStore struct {
	migrated int
	queries  []string
}

func (s *fakeStore) Migrate(context.Context) error {
	s.migrated++
	return nil
}

func (s *fakeStore) Begin(context.Context) (store.Tx, error) {
	return nil, errors.New("not supported")
}

func (s *fakeStore) Query(_ context.Context, q string) (store.Result, error) {
	s.queries = append(s.queries, q)
	if _, err := store.ValidateReadOnly(q); err != nil {
		return store.Result{}, err
	}
	return store.Result{
		Columns: []string{"team_id"},
		Rows:    []map[string]any{{"team_id": "fnatic"}},
	}, nil
}

func (s *fakeStore) Close() error { return nil }

type fakeApp struct {
	cfg     config.Config
	opts    app.CrawlOptions
	crawler *fakeCrawler
	loader  *fakeLoader
	store   *fakeStore
	closed  int
}

func (a *fakeApp) Close()                { a.closed++ }
func (a *fakeApp) Logger() *zap.Logger   { return zap.NewNop() }
func (a *fakeApp) Config() config.Config { return a.cfg }

func (a *fakeApp) DefaultCrawlOptions() app.CrawlOptions {
	return app.CrawlOptions{StartPage: 1, EndPage: 5, Resume: true}
}

func (a *fakeApp) Crawler(opts app.CrawlOptions) (app.Crawler, error) {
	a.opts = opts
	return a.crawler, nil
}

func (a *fakeApp) Loader(context.Context) (app.Loader, error) { return a.loader, nil }

func (a *fakeApp) Store(context.Context) (store.Store, error) { return a.store, nil }

func withFakeApp(t *testing.T) *fakeApp {
	t.Helper()
	fa := &fakeApp{
		cfg:     config.Config{Ingest: config.IngestConfig{Root: "VCT Events"}},
		crawler: &fakeCrawler{},
		loader:  &fakeLoader{},
		store:   &fakeStore{},
	}
	prev := newApp
	newApp = func(context.Context, string, string) (App, error) { return fa, nil }
	t.Cleanup(func() { newApp = prev })
	return fa
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCrawlGlobalAppliesFlags(t *testing.T) {
	fa := withFakeApp(t)
	fa.crawler.global = crawler.Summary{Matches: 4, Collected: 3, Failed: 1}

	out, err := run(t, "crawl", "global", "--start", "2", "--end", "3", "--force", "--skip", "economy,performance")
	require.NoError(t, err)
	assert.Equal(t, app.CrawlOptions{
		StartPage: 2,
		EndPage:   3,
		Resume:    false,
		Skip:      []string{"economy", "performance"},
	}, fa.opts)
	assert.Contains(t, out, "3 collected, 0 skipped, 1 failed")
	assert.Equal(t, 1, fa.closed)
}

func TestCrawlEventKeepsConfigDefaults(t *testing.T) {
	fa := withFakeApp(t)

	_, err := run(t, "crawl", "event", "https://www.vlr.gg/event/2283")
	require.NoError(t, err)
	assert.Equal(t, "https://www.vlr.gg/event/2283", fa.crawler.eventURL)
	assert.Equal(t, app.CrawlOptions{StartPage: 1, EndPage: 5, Resume: true}, fa.opts)
}

func TestCrawlMatch(t *testing.T) {
	fa := withFakeApp(t)

	out, err := run(t, "crawl", "match", "https://www.vlr.gg/542195/nrg-vs-fnatic", "--stage-dir", "2025/Champions/Playoffs")
	require.NoError(t, err)
	assert.Equal(t, "https://www.vlr.gg/542195/nrg-vs-fnatic", fa.crawler.matchURL)
	assert.Equal(t, "2025/Champions/Playoffs", fa.crawler.stageDir)
	assert.Contains(t, out, "0 collected, 1 skipped")
}

func TestCrawlFailureIsReported(t *testing.T) {
	fa := withFakeApp(t)
	fa.crawler.err = errors.New("listing exploded")

	_, err := run(t, "crawl", "global")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing exploded")
}

func TestIngestMigratesThenLoads(t *testing.T) {
	fa := withFakeApp(t)

	out, err := run(t, "ingest")
	require.NoError(t, err)
	assert.Equal(t, 1, fa.store.migrated)
	assert.Equal(t, "VCT Events", fa.loader.root)
	assert.Contains(t, out, "matches: 2 loaded, 1 failed")
	assert.Contains(t, out, "rounds")

	_, err = run(t, "ingest", "/data/other")
	require.NoError(t, err)
	assert.Equal(t, "/data/other", fa.loader.root)
}

func TestQueryPrintsJSON(t *testing.T) {
	fa := withFakeApp(t)

	out, err := run(t, "query", "SELECT team_id FROM teams")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"team_id": "fnatic"}]`, out)
	assert.Equal(t, []string{"SELECT team_id FROM teams"}, fa.store.queries)

	_, err = run(t, "query", "DELETE FROM teams")
	require.ErrorIs(t, err, store.ErrNotReadOnly)
}

func TestMigrateAndSchema(t *testing.T) {
	fa := withFakeApp(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, 1, fa.store.migrated)
	assert.Contains(t, out, "11 tables")

	out, err = run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "player_vs_player_kills")
}

func TestAppInitFailure(t *testing.T) {
	prev := newApp
	newApp = func(context.Context, string, string) (App, error) { return nil, errors.New("bad config") }
	t.Cleanup(func() { newApp = prev })

	_, err := run(t, "schema")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize application services: bad config")
}
