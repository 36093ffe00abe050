package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/artifact"
	"github.com/mshayan3/vlrscrape/internal/identity"
	"github.com/mshayan3/vlrscrape/internal/policy/rounds"
	"github.com/mshayan3/vlrscrape/internal/store"
)

// matchLoad carries the state of one match folder being loaded.
type matchLoad struct {
	tx      rowWriter
	res     *identity.Resolver
	logger  *zap.Logger
	dir     string
	matchID string
	folder  MatchFolder
	teamA   string
	teamB   string
}

func (m *matchLoad) run(ctx context.Context, ev store.Event, stage string) error {
	if _, err := m.tx.InsertEvent(ctx, ev); err != nil {
		return err
	}
	var err error
	if m.teamA, err = m.res.EnsureTeam(ctx, m.folder.TeamA); err != nil {
		return err
	}
	if m.teamB, err = m.res.EnsureTeam(ctx, m.folder.TeamB); err != nil {
		return err
	}
	match := store.Match{
		ID:        m.matchID,
		EventID:   ev.ID,
		Name:      m.folder.Name(),
		Stage:     stage,
		TeamAID:   m.teamA,
		TeamBID:   m.teamB,
		SourceURL: m.sourceURL(),
	}
	if _, err := m.tx.InsertMatch(ctx, match); err != nil {
		return err
	}

	if err := m.loadVeto(ctx); err != nil {
		return err
	}
	maps, err := mapFiles(m.dir)
	if err != nil {
		return err
	}
	for _, mp := range maps {
		if err := m.loadMap(ctx, mp); err != nil {
			return err
		}
	}
	m.logger.Debug("match staged", zap.Int("maps", len(maps)))
	return nil
}

func (m *matchLoad) sourceURL() *string {
	path := filepath.Join(m.dir, artifact.MatchManifest)
	var info artifact.MatchInfo
	if err := artifact.ReadManifest(path, &info); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("unreadable match manifest", zap.Error(err))
		}
		return nil
	}
	return store.NullString(strings.TrimSpace(info.URL))
}

// open reports whether an artifact read succeeded. A missing file is silently absent; any
// other failure is logged and the artifact skipped. Row-level rejections are logged.
func (m *matchLoad) open(rel string, err error, invalid []artifact.RowError) bool {
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("skipping unreadable artifact", zap.String("file", rel), zap.Error(err))
		}
		return false
	}
	for _, re := range invalid {
		m.logger.Warn("skipping malformed row", zap.String("file", rel), zap.Int("line", re.Line), zap.Error(re.Err))
	}
	return true
}

func (m *matchLoad) loadVeto(ctx context.Context) error {
	rel := artifact.VetoPath()
	t, err := artifact.ReadVeto(filepath.Join(m.dir, rel))
	if !m.open(rel, err, t.Invalid) {
		return nil
	}
	for _, row := range t.Rows {
		v := store.Veto{
			ID:      fmt.Sprintf("%s_v%d", m.matchID, row.Position),
			MatchID: m.matchID,
			Order:   row.Position,
			MapName: row.Map,
		}
		team := ""
		switch {
		case strings.EqualFold(row.Pick, store.VetoDecider):
			v.Action = store.VetoDecider
		case row.Pick != "":
			v.Action, team = store.VetoPick, row.Pick
		case row.Ban != "":
			v.Action, team = store.VetoBan, row.Ban
		default:
			continue
		}
		teamID, err := m.res.EnsureTeam(ctx, team)
		if err != nil {
			return err
		}
		v.TeamID = store.NullString(teamID)
		if _, err := m.tx.InsertVeto(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *matchLoad) loadMap(ctx context.Context, mp mapFile) error {
	mapID := fmt.Sprintf("%s_m%d", m.matchID, mp.number)
	name := artifact.CleanMapName(mp.raw)
	if _, err := m.tx.InsertMap(ctx, store.Map{ID: mapID, MatchID: m.matchID, Number: mp.number, Name: name}); err != nil {
		return err
	}
	steps := []func(context.Context, string, mapFile) error{
		m.loadStats,
		m.loadRounds,
		m.loadEconomy,
		m.loadKills,
	}
	for _, step := range steps {
		if err := step(ctx, mapID, mp); err != nil {
			return fmt.Errorf("map %d %s: %w", mp.number, name, err)
		}
	}
	return nil
}

func (m *matchLoad) loadStats(ctx context.Context, mapID string, mp mapFile) error {
	rel := filepath.Join(artifact.CategoryStats, mp.file)
	t, err := artifact.ReadPlayerStats(filepath.Join(m.dir, rel))
	if !m.open(rel, err, t.Invalid) {
		return nil
	}
	for _, row := range t.Rows {
		if row.Side != "All" {
			continue
		}
		playerID, err := m.res.EnsurePlayer(ctx, row.Player, row.Team)
		if err != nil {
			return err
		}
		if playerID == "" {
			m.logger.Debug("skipping player without id", zap.String("player", row.Player))
			continue
		}
		teamID, err := m.res.EnsureTeam(ctx, row.Team)
		if err != nil {
			return err
		}
		var agentID string
		if len(row.Agents) > 0 {
			if agentID, err = m.res.EnsureAgent(ctx, row.Agents[0]); err != nil {
				return err
			}
		}
		stat := store.PlayerMapStat{
			ID:       mapID + "_" + playerID,
			MapID:    mapID,
			PlayerID: playerID,
			TeamID:   store.NullString(teamID),
			AgentID:  store.NullString(agentID),
			ACS:      row.ACS,
			Kills:    row.Kills,
			Deaths:   row.Deaths,
			Assists:  row.Assists,
			ADR:      row.ADR,
			KAST:     row.KAST,
			HSPct:    row.HSPct,
			Rating:   row.Rating,
			FK:       row.FK,
			FD:       row.FD,
		}
		if _, err := m.tx.InsertPlayerMapStat(ctx, stat); err != nil {
			return err
		}
	}
	return nil
}

func (m *matchLoad) loadRounds(ctx context.Context, mapID string, mp mapFile) error {
	rel := artifact.RoundsFile(mp.raw)
	t, err := artifact.ReadRounds(filepath.Join(m.dir, rel))
	if !m.open(rel, err, t.Invalid) {
		return nil
	}
	for _, row := range t.Rows {
		team := row.WinningTeam
		if artifact.IsPlaceholderTeam(team) {
			team = ""
		}
		winner, err := m.res.EnsureTeam(ctx, team)
		if err != nil {
			return err
		}
		r := store.Round{
			ID:            fmt.Sprintf("%s_r%d", mapID, row.Number),
			MapID:         mapID,
			Number:        row.Number,
			Score:         row.Score,
			WinningTeamID: store.NullString(winner),
			WinningSide:   store.NullString(row.WinningSide),
			WinMethod:     store.NullString(row.WinMethod),
			Phase:         rounds.PhaseOf(row.Number),
		}
		if _, err := m.tx.InsertRound(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *matchLoad) loadEconomy(ctx context.Context, mapID string, mp mapFile) error {
	rel := artifact.RoundsEconomyFile(mp.raw)
	t, err := artifact.ReadEconomyMatrix(filepath.Join(m.dir, rel))
	if !m.open(rel, err, t.Invalid) {
		return nil
	}
	for _, cell := range t.Rows {
		for _, side := range []struct {
			team    string
			credits *int
		}{
			{m.teamA, ParseCredits(cell.CreditA)},
			{m.teamB, ParseCredits(cell.CreditB)},
		} {
			if side.credits == nil || side.team == "" {
				continue
			}
			e := store.RoundEconomy{
				ID:      fmt.Sprintf("%s_r%d_%s", mapID, cell.Round, side.team),
				MapID:   mapID,
				Round:   cell.Round,
				TeamID:  side.team,
				Credits: *side.credits,
				BuyTier: BuyTier(side.credits),
			}
			if _, err := m.tx.InsertRoundEconomy(ctx, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *matchLoad) loadKills(ctx context.Context, mapID string, mp mapFile) error {
	rel := artifact.PerformanceFile(mp.raw, artifact.PerfAllKills)
	t, err := artifact.ReadKillMatrix(filepath.Join(m.dir, rel))
	if !m.open(rel, err, t.Invalid) {
		return nil
	}
	for _, cell := range t.Rows {
		killer, err := m.res.EnsurePlayer(ctx, cell.Killer, cell.KillerTeam)
		if err != nil {
			return err
		}
		victim, err := m.res.EnsurePlayer(ctx, cell.Victim, cell.VictimTeam)
		if err != nil {
			return err
		}
		if killer == "" || victim == "" || killer == victim {
			continue
		}
		killerTeam, err := m.res.EnsureTeam(ctx, cell.KillerTeam)
		if err != nil {
			return err
		}
		victimTeam, err := m.res.EnsureTeam(ctx, cell.VictimTeam)
		if err != nil {
			return err
		}
		k := store.Kill{
			ID:           mapID + "_" + killer + "_" + victim,
			MapID:        mapID,
			KillerID:     killer,
			VictimID:     victim,
			KillerTeamID: store.NullString(killerTeam),
			VictimTeamID: store.NullString(victimTeam),
			Count:        cell.Count,
		}
		if _, err := m.tx.InsertKill(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
