package collector

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/artifact"
	"github.com/mshayan3/vlrscrape/internal/fetch"
)

// Skippable artifact kinds.
const (
	KindVeto        = "veto"
	KindStats       = "stats"
	KindRounds      = "rounds"
	KindEconomy     = "economy"
	KindPerformance = "performance"
)

// Kinds lists every artifact kind in collection order.
var Kinds = []string{KindVeto, KindStats, KindRounds, KindEconomy, KindPerformance}

// ParseSkip validates a skip list.
func ParseSkip(kinds []string) (map[string]bool, error) {
	out := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		valid := false
		for _, known := range Kinds {
			if k == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown artifact kind %q (want one of %s)", k, strings.Join(Kinds, ", "))
		}
		out[k] = true
	}
	return out, nil
}

// Options tune a MatchCollector.
type Options struct {
	Skip   map[string]bool
	Resume bool
}

// MatchCollector writes every artifact of one match.
type MatchCollector struct {
	fetcher fetch.Fetcher
	store   *artifact.Store
	logger  *zap.Logger
	opts    Options
}

// NewMatchCollector wires a collector.
func NewMatchCollector(f fetch.Fetcher, store *artifact.Store, logger *zap.Logger, opts Options) *MatchCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchCollector{fetcher: f, store: store, logger: logger, opts: opts}
}

// Result summarizes one match collection.
type Result struct {
	Folder    string
	Skipped   bool
	Artifacts int
}

// Collect fetches the match page at matchURL and writes its artifacts under stageDir
// (relative to the artifact root). Only a failed fetch of the match page is an error;
// every other failure is logged and costs just the affected artifact.
func (c *MatchCollector) Collect(ctx context.Context, matchURL, stageDir string) (Result, error) {
	doc, err := c.page(ctx, matchURL)
	if err != nil {
		return Result{}, fmt.Errorf("fetch match page: %w", err)
	}

	header, headerErr := ParseHeader(doc)
	if headerErr != nil {
		c.logger.Warn("match header missing, using fallback folder", zap.String("url", matchURL), zap.Error(headerErr))
	}
	folder := FolderName(header, matchURL)
	dir := filepath.Join(stageDir, folder)
	res := Result{Folder: dir}
	logger := c.logger.With(zap.String("match", folder))

	if c.opts.Resume && c.store.Exists(dir, artifact.CompletionMarker) {
		logger.Info("match already collected, skipping")
		res.Skipped = true
		return res, nil
	}

	info := artifact.MatchInfo{URL: matchURL, Team1: header.Team1, Team2: header.Team2, Series: header.Series}
	if err := c.store.WriteManifest(dir, artifact.MatchManifest, info); err != nil {
		logger.Warn("write match manifest", zap.Error(err))
	}

	w := &writer{store: c.store, dir: dir, logger: logger}
	selectors := MapSelectors(doc)
	if len(selectors) == 0 {
		logger.Info("match has no map selectors")
	}

	if !c.opts.Skip[KindVeto] {
		if rows, err := ParseVeto(doc); err != nil {
			logger.Warn("veto not available", zap.Error(err))
		} else {
			w.table(artifact.VetoPath(), VetoHeader, rows)
		}
	}

	// The completion marker is written last so an interrupted match is collected again.
	var marker [][]string
	if !c.opts.Skip[KindStats] {
		for _, sel := range selectors {
			rows := ParsePlayerStats(doc, sel)
			if len(rows) == 0 {
				continue
			}
			if sel.Label == artifact.AllMapsLabel {
				marker = rows
				continue
			}
			w.table(artifact.StatsFile(sel.Label), PlayerStatsHeader, rows)
		}
	}

	if !c.opts.Skip[KindRounds] {
		for _, sel := range selectors {
			if rows := ParseRounds(doc, sel); len(rows) > 0 {
				w.table(artifact.RoundsFile(sel.Name), RoundsHeader, rows)
			}
		}
	}

	if !c.opts.Skip[KindEconomy] {
		c.collectEconomy(ctx, matchURL, w)
	}
	if !c.opts.Skip[KindPerformance] {
		c.collectPerformance(ctx, matchURL, w)
	}

	if marker != nil {
		w.table(artifact.StatsFile(artifact.AllMapsLabel), PlayerStatsHeader, marker)
	}
	res.Artifacts = w.written
	return res, nil
}

// TabURL is the match URL for a stats tab of one game ("all" or a game id).
func TabURL(matchURL, gameID, tab string) string {
	return strings.TrimRight(matchURL, "/") + "/?game=" + gameID + "&tab=" + tab
}

func (c *MatchCollector) collectEconomy(ctx context.Context, matchURL string, w *writer) {
	overview, err := c.page(ctx, TabURL(matchURL, AllGameID, "economy"))
	if err != nil {
		w.logger.Warn("economy overview unavailable", zap.Error(err))
		return
	}
	for _, sel := range withAllMaps(MapSelectors(overview)) {
		doc := overview
		if sel.GameID != AllGameID {
			if doc, err = c.page(ctx, TabURL(matchURL, sel.GameID, "economy")); err != nil {
				w.logger.Warn("economy page unavailable", zap.String("map", sel.Name), zap.Error(err))
				continue
			}
		}
		summary, perRound, err := EconomyTables(doc, sel.GameID)
		if err != nil {
			w.logger.Warn("economy tables missing", zap.String("map", sel.Name), zap.Error(err))
			continue
		}
		name := sel.FileName()
		w.table(artifact.EconomyFile(name), nil, summary)
		if perRound != nil {
			w.table(artifact.RoundsEconomyFile(name), nil, perRound)
		}
	}
}

func (c *MatchCollector) collectPerformance(ctx context.Context, matchURL string, w *writer) {
	doc, err := c.page(ctx, TabURL(matchURL, AllGameID, "performance"))
	if err != nil {
		w.logger.Warn("performance page unavailable", zap.Error(err))
		return
	}
	for _, sel := range withAllMaps(MapSelectors(doc)) {
		tables, err := PerformanceTables(doc, sel.GameID)
		if err != nil {
			w.logger.Warn("performance tables missing", zap.String("map", sel.Name), zap.Error(err))
			continue
		}
		for _, pt := range performanceTables {
			if rows, ok := tables[pt.kind]; ok {
				w.table(artifact.PerformanceFile(sel.FileName(), pt.kind), nil, rows)
			}
		}
	}
}

func (c *MatchCollector) page(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	return doc, nil
}

// writer writes tables into one match folder and logs failures instead of returning them.
type writer struct {
	store   *artifact.Store
	dir     string
	logger  *zap.Logger
	written int
}

func (w *writer) table(rel string, header []string, rows [][]string) {
	if err := w.store.WriteTable(w.dir, rel, header, rows); err != nil {
		w.logger.Warn("write artifact", zap.String("file", rel), zap.Error(err))
		return
	}
	w.written++
	w.logger.Debug("artifact written", zap.String("file", rel), zap.Int("rows", len(rows)))
}

