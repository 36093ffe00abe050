package ingest

import (
	"context"
	"sort"

	"github.com/mshayan3/vlrscrape/internal/store"
)

// rowWriter is the insert surface of store.Tx that a match load writes through.
type rowWriter interface {
	InsertEvent(ctx context.Context, e store.Event) (bool, error)
	InsertTeam(ctx context.Context, t store.Team) (bool, error)
	InsertPlayer(ctx context.Context, p store.Player) (bool, error)
	InsertAgent(ctx context.Context, a store.Agent) (bool, error)
	InsertMatch(ctx context.Context, m store.Match) (bool, error)
	InsertMap(ctx context.Context, m store.Map) (bool, error)
	InsertRound(ctx context.Context, r store.Round) (bool, error)
	InsertVeto(ctx context.Context, v store.Veto) (bool, error)
	InsertPlayerMapStat(ctx context.Context, s store.PlayerMapStat) (bool, error)
	InsertRoundEconomy(ctx context.Context, e store.RoundEconomy) (bool, error)
	InsertKill(ctx context.Context, k store.Kill) (bool, error)
}

// stagedRows buffers one match's inserts in memory. flush writes the shared entity rows
// first, in key order (events, teams, agents, players), then the match rows in the order
// they were staged. Every concurrent match transaction therefore takes entity row locks in
// the same order.
type stagedRows struct {
	events  map[string]store.Event
	teams   map[string]store.Team
	agents  map[string]store.Agent
	players map[string]store.Player
	rows    []func(context.Context, rowWriter) error
}

func newStagedRows() *stagedRows {
	return &stagedRows{
		events:  make(map[string]store.Event),
		teams:   make(map[string]store.Team),
		agents:  make(map[string]store.Agent),
		players: make(map[string]store.Player),
	}
}

func (s *stagedRows) InsertEvent(_ context.Context, e store.Event) (bool, error) {
	return keep(s.events, e.ID, e), nil
}

func (s *stagedRows) InsertTeam(_ context.Context, t store.Team) (bool, error) {
	return keep(s.teams, t.ID, t), nil
}

func (s *stagedRows) InsertPlayer(_ context.Context, p store.Player) (bool, error) {
	return keep(s.players, p.ID, p), nil
}

func (s *stagedRows) InsertAgent(_ context.Context, a store.Agent) (bool, error) {
	return keep(s.agents, a.ID, a), nil
}

func (s *stagedRows) InsertMatch(_ context.Context, m store.Match) (bool, error) {
	return s.add(func(ctx context.Context, w rowWriter) error {
		_, err := w.InsertMatch(ctx, m)
		return err
	}), nil
}

func (s *stagedRows) InsertMap(_ context.Context, m store.Map) (bool, error) {
	return s.add(func(ctx context.Context, w rowWriter) error {
		_, err := w.InsertMap(ctx, m)
		return err
	}), nil
}

func (s *stagedRows) InsertRound(_ context.Context, r store.Round) (bool, error) {
	return s.add(func(ctx context.Context, w rowWriter) error {
		_, err := w.InsertRound(ctx, r)
		return err
	}), nil
}

func (s *stagedRows) InsertVeto(_ context.Context, v store.Veto) (bool, error) {
	return s.add(func(ctx context.Context, w rowWriter) error {
		_, err := w.InsertVeto(ctx, v)
		return err
	}), nil
}

func (s *stagedRows) InsertPlayerMapStat(_ context.Context, st store.PlayerMapStat) (bool, error) {
	return s.add(func(ctx context.Context, w rowWriter) error {
		_, err := w.InsertPlayerMapStat(ctx, st)
		return err
	}), nil
}

func (s *stagedRows) InsertRoundEconomy(_ context.Context, e store.RoundEconomy) (bool, error) {
	return s.add(func(ctx context.Context, w rowWriter) error {
		_, err := w.InsertRoundEconomy(ctx, e)
		return err
	}), nil
}

func (s *stagedRows) InsertKill(_ context.Context, k store.Kill) (bool, error) {
	return s.add(func(ctx context.Context, w rowWriter) error {
		_, err := w.InsertKill(ctx, k)
		return err
	}), nil
}

func (s *stagedRows) add(fn func(context.Context, rowWriter) error) bool {
	s.rows = append(s.rows, fn)
	return true
}

func (s *stagedRows) flush(ctx context.Context, w rowWriter) error {
	for _, id := range sortedKeys(s.events) {
		if _, err := w.InsertEvent(ctx, s.events[id]); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(s.teams) {
		if _, err := w.InsertTeam(ctx, s.teams[id]); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(s.agents) {
		if _, err := w.InsertAgent(ctx, s.agents[id]); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(s.players) {
		if _, err := w.InsertPlayer(ctx, s.players[id]); err != nil {
			return err
		}
	}
	for _, fn := range s.rows {
		if err := fn(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func keep[T any](m map[string]T, id string, v T) bool {
	if _, ok := m[id]; ok {
		return false
	}
	m[id] = v
	return true
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
