package store

import (
	"context"
	"errors"
	"fmt"
)

// Store is a relational backend for the dataset.
type Store interface {
	// Migrate creates any missing tables.
	Migrate(ctx context.Context) error
	// Begin opens a write transaction.
	Begin(ctx context.Context) (Tx, error)
	// Query runs one validated read-only SELECT.
	Query(ctx context.Context, query string) (Result, error)
	Close() error
}

// Tx stages inserts for one unit of work. Every Insert method is insert-if-absent and
// reports whether a new row was written.
type Tx interface {
	InsertEvent(ctx context.Context, e Event) (bool, error)
	InsertTeam(ctx context.Context, t Team) (bool, error)
	InsertPlayer(ctx context.Context, p Player) (bool, error)
	InsertAgent(ctx context.Context, a Agent) (bool, error)
	InsertMatch(ctx context.Context, m Match) (bool, error)
	InsertMap(ctx context.Context, m Map) (bool, error)
	InsertRound(ctx context.Context, r Round) (bool, error)
	InsertVeto(ctx context.Context, v Veto) (bool, error)
	InsertPlayerMapStat(ctx context.Context, s PlayerMapStat) (bool, error)
	InsertRoundEconomy(ctx context.Context, e RoundEconomy) (bool, error)
	InsertKill(ctx context.Context, k Kill) (bool, error)
	// Inserted returns new-row counts per table since Begin.
	Inserted() map[string]int
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is the minimal transactional surface a backend adapts to. Exec returns the number
// of affected rows.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ErrInvalidRow is returned when a row violates an invariant before reaching the database.
var ErrInvalidRow = errors.New("invalid row")

type tx struct {
	conn     Conn
	inserted map[string]int
}

// NewTx wraps a backend transaction with the shared insert statements.
func NewTx(conn Conn) Tx {
	return &tx{conn: conn, inserted: make(map[string]int)}
}

func (t *tx) insert(ctx context.Context, table, query string, args ...any) (bool, error) {
	n, err := t.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", table, err)
	}
	if n > 0 {
		t.inserted[table] += int(n)
	}
	return n > 0, nil
}

func (t *tx) InsertEvent(ctx context.Context, e Event) (bool, error) {
	if e.ID == "" || e.Name == "" {
		return false, fmt.Errorf("event: %w", ErrInvalidRow)
	}
	source := e.Source
	if source == "" {
		source = "vlr.gg"
	}
	return t.insert(ctx, "events", insertEvent, e.ID, e.Name, e.Year, source)
}

func (t *tx) InsertTeam(ctx context.Context, tm Team) (bool, error) {
	if tm.ID == "" {
		return false, fmt.Errorf("team: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "teams", insertTeam, tm.ID, tm.Name, val(tm.Region))
}

func (t *tx) InsertPlayer(ctx context.Context, p Player) (bool, error) {
	if p.ID == "" {
		return false, fmt.Errorf("player: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "players", insertPlayer, p.ID, p.Name, val(p.TeamID))
}

func (t *tx) InsertAgent(ctx context.Context, a Agent) (bool, error) {
	if a.ID == "" {
		return false, fmt.Errorf("agent: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "agents", insertAgent, a.ID, a.Name)
}

func (t *tx) InsertMatch(ctx context.Context, m Match) (bool, error) {
	if m.ID == "" || m.EventID == "" {
		return false, fmt.Errorf("match: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "matches", insertMatch,
		m.ID, m.EventID, m.Name, m.Stage, val(NullString(m.TeamAID)), val(NullString(m.TeamBID)), val(m.SourceURL))
}

func (t *tx) InsertMap(ctx context.Context, m Map) (bool, error) {
	if m.ID == "" || m.MatchID == "" {
		return false, fmt.Errorf("map: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "maps", insertMap, m.ID, m.MatchID, m.Number, m.Name)
}

func (t *tx) InsertRound(ctx context.Context, r Round) (bool, error) {
	if r.ID == "" || r.Number <= 0 || r.Score == "" {
		return false, fmt.Errorf("round: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "rounds", insertRound,
		r.ID, r.MapID, r.Number, r.Score, val(r.WinningTeamID), val(r.WinningSide), val(r.WinMethod), r.Phase)
}

func (t *tx) InsertVeto(ctx context.Context, v Veto) (bool, error) {
	switch v.Action {
	case VetoPick, VetoBan, VetoDecider:
	default:
		return false, fmt.Errorf("veto action %q: %w", v.Action, ErrInvalidRow)
	}
	if v.ID == "" || v.MapName == "" {
		return false, fmt.Errorf("veto: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "map_veto", insertVeto, v.ID, v.MatchID, v.Order, val(v.TeamID), v.Action, v.MapName)
}

func (t *tx) InsertPlayerMapStat(ctx context.Context, s PlayerMapStat) (bool, error) {
	if s.ID == "" || s.PlayerID == "" {
		return false, fmt.Errorf("player map stat: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "player_map_stats", insertPlayerMapStat,
		s.ID, s.MapID, s.PlayerID, val(s.TeamID), val(s.AgentID),
		val(s.ACS), val(s.Kills), val(s.Deaths), val(s.Assists),
		val(s.ADR), val(s.KAST), val(s.HSPct), val(s.Rating), val(s.FK), val(s.FD))
}

func (t *tx) InsertRoundEconomy(ctx context.Context, e RoundEconomy) (bool, error) {
	if e.ID == "" || e.TeamID == "" || e.BuyTier == "" {
		return false, fmt.Errorf("round economy: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "round_economy", insertRoundEconomy,
		e.ID, e.MapID, e.Round, e.TeamID, e.Credits, e.BuyTier)
}

func (t *tx) InsertKill(ctx context.Context, k Kill) (bool, error) {
	if k.Count <= 0 || k.KillerID == "" || k.KillerID == k.VictimID {
		return false, fmt.Errorf("kill edge: %w", ErrInvalidRow)
	}
	return t.insert(ctx, "player_vs_player_kills", insertKill,
		k.ID, k.MapID, k.KillerID, k.VictimID, val(k.KillerTeamID), val(k.VictimTeamID), k.Count)
}

func (t *tx) Inserted() map[string]int {
	out := make(map[string]int, len(t.inserted))
	for k, v := range t.inserted {
		out[k] = v
	}
	return out
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.conn.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if err := t.conn.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// val unwraps optional columns so drivers only ever see plain values or nil.
func val[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
