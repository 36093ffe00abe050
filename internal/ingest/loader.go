package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mshayan3/vlrscrape/internal/artifact"
	"github.com/mshayan3/vlrscrape/internal/identity"
	"github.com/mshayan3/vlrscrape/internal/metrics"
	"github.com/mshayan3/vlrscrape/internal/store"
)

// Config controls a Loader.
type Config struct {
	Workers int
	// Event names the event of match folders that have no event manifest above them.
	Event EventDefault
}

// EventDefault is the configured fallback event.
type EventDefault struct {
	Name string
	Year int
}

// Summary counts what a load did. Rows holds newly inserted rows per table.
type Summary struct {
	Matches int
	Loaded  int
	Failed  int
	Rows    map[string]int
}

// Loader loads match folders into a store.
type Loader struct {
	store  store.Store
	reg    *identity.Registry
	cfg    Config
	logger *zap.Logger
}

// New builds a Loader. reg is shared by every match of the run.
func New(st store.Store, reg *identity.Registry, cfg Config, logger *zap.Logger) (*Loader, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if reg == nil {
		reg = identity.NewRegistry()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: st, reg: reg, cfg: cfg, logger: logger}, nil
}

// FindMatches returns every directory under root holding a player_stats or map_veto
// folder, in lexical order. Match folders are not searched further.
func FindMatches(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isMatchDir(path) {
			out = append(out, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

func isMatchDir(dir string) bool {
	for _, sub := range []string{artifact.CategoryStats, artifact.CategoryVeto} {
		if fi, err := os.Stat(filepath.Join(dir, sub)); err == nil && fi.IsDir() {
			return true
		}
	}
	return false
}

// LoadTree loads every match under root, Workers at a time. A failing match is logged and
// counted; only cancellation stops the walk.
func (l *Loader) LoadTree(ctx context.Context, root string) (Summary, error) {
	dirs, err := FindMatches(root)
	if err != nil {
		return Summary{}, err
	}
	l.logger.Info("match folders found", zap.String("root", root), zap.Int("matches", len(dirs)))

	var (
		mu  sync.Mutex
		sum = Summary{Matches: len(dirs), Rows: make(map[string]int)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)
	for _, dir := range dirs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rows, err := l.LoadMatch(gctx, root, dir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				l.logger.Warn("match load failed", zap.String("match", relTo(root, dir)), zap.Error(err))
				return nil
			}
			sum.Loaded++
			for table, n := range rows {
				sum.Rows[table] += n
			}
			return nil
		})
	}
	_ = g.Wait()
	return sum, ctx.Err()
}

// LoadMatch loads one match folder in a single transaction and returns the rows it added.
// root bounds the search for the event manifest.
func (l *Loader) LoadMatch(ctx context.Context, root, dir string) (map[string]int, error) {
	rows, err := l.loadMatch(ctx, root, dir)
	if err != nil {
		metrics.ObserveMatch("ingest", "failed")
		return nil, err
	}
	metrics.ObserveMatch("ingest", "loaded")
	for table, n := range rows {
		metrics.ObserveRows(table, n)
	}
	return rows, nil
}

func (l *Loader) loadMatch(ctx context.Context, root, dir string) (map[string]int, error) {
	mf, err := ParseMatchFolder(filepath.Base(dir))
	if err != nil {
		return nil, err
	}
	ev, err := l.eventFor(root, dir)
	if err != nil {
		return nil, err
	}

	staged := newStagedRows()
	m := &matchLoad{
		tx:      staged,
		res:     identity.NewResolver(l.reg, staged),
		logger:  l.logger.With(zap.String("match", relTo(root, dir))),
		dir:     dir,
		matchID: identity.Slugify(filepath.Base(dir)),
		folder:  mf,
	}
	if err := m.run(ctx, ev, stageOf(root, dir, mf)); err != nil {
		return nil, err
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin match: %w", err)
	}
	if err := staged.flush(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			m.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return tx.Inserted(), nil
}

// eventFor finds the event of a match: the nearest event manifest between dir and root,
// then the configured default, then the event folder of the {year}/{event}/{stage}/{match}
// layout.
func (l *Loader) eventFor(root, dir string) (store.Event, error) {
	if path := findUp(root, filepath.Dir(dir), artifact.EventManifest); path != "" {
		var info artifact.EventInfo
		if err := artifact.ReadManifest(path, &info); err != nil {
			return store.Event{}, err
		}
		if strings.TrimSpace(info.Name) != "" {
			return newEvent(info.Name, info.Year), nil
		}
	}
	if l.cfg.Event.Name != "" {
		return newEvent(l.cfg.Event.Name, l.cfg.Event.Year), nil
	}
	eventDir := filepath.Dir(filepath.Dir(dir))
	if within(root, eventDir) && eventDir != filepath.Clean(root) {
		year, _ := strconv.Atoi(filepath.Base(filepath.Dir(eventDir)))
		return newEvent(strings.ReplaceAll(filepath.Base(eventDir), "_", " "), year), nil
	}
	return store.Event{}, fmt.Errorf("no event for %s: set ingest.event.name", dir)
}

// findUp returns the first file called name in dir or one of its parents up to root.
func findUp(root, dir, name string) string {
	root = filepath.Clean(root)
	for d := filepath.Clean(dir); within(root, d); d = filepath.Dir(d) {
		path := filepath.Join(d, name)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
		if d == root || filepath.Dir(d) == d {
			break
		}
	}
	return ""
}

func newEvent(name string, year int) store.Event {
	name = strings.TrimSpace(name)
	return store.Event{ID: identity.Slugify(name), Name: name, Year: year}
}

// stageOf prefers the stage detail of the folder name and falls back to the stage folder.
func stageOf(root, dir string, mf MatchFolder) string {
	if mf.Stage != UnknownStage {
		return mf.Stage
	}
	parent := filepath.Dir(dir)
	if within(root, parent) && parent != filepath.Clean(root) {
		return strings.ReplaceAll(filepath.Base(parent), "_", " ")
	}
	return mf.Stage
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func relTo(root, dir string) string {
	if rel, err := filepath.Rel(root, dir); err == nil {
		return rel
	}
	return dir
}

// mapFile is one per-map player_stats artifact.
type mapFile struct {
	number int
	raw    string
	file   string
}

func mapFiles(dir string) ([]mapFile, error) {
	entries, err := os.ReadDir(filepath.Join(dir, artifact.CategoryStats))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list player stats: %w", err)
	}
	var out []mapFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, raw, ok := artifact.ParseMapFile(e.Name()); ok {
			out = append(out, mapFile{number: n, raw: raw, file: e.Name()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].number < out[j].number })
	return out, nil
}
