package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/identity"
	"github.com/mshayan3/vlrscrape/internal/store"
	"github.com/mshayan3/vlrscrape/internal/store/sqlite"
)

const grandFinal = "NRG_vs_FNATIC_Playoffs-_Grand_Final"

var fixture = map[string]string{
	"event.json": `{"name": "Valorant Champions 2025", "year": 2025, "url": "https://www.vlr.gg/event/2283"}`,
	"Playoffs/" + grandFinal + "/match.json": `{"url": "https://www.vlr.gg/542195/nrg-vs-fnatic"}`,
	"Playoffs/" + grandFinal + "/map_veto/map_veto.csv": `map,pick,ban
Bind,,FNATIC
Haven,,NRG
Corrode,NRG,
Abyss,,
Lotus,decider,
`,
	"Playoffs/" + grandFinal + "/player_stats/All_Maps.csv": `Player,Team,Map,Side,Agents,R2.0,ACS,K,D,A,K/D,KAST,ADR,HS%,FK,FD,FK/FD
s0m,NRG,All Maps,All,Omen,1.10,220,18,12,5,1.5,75%,140.2,25%,2,1,+1
`,
	"Playoffs/" + grandFinal + "/player_stats/Map_1_1Corrode.csv": `Player,Team,Map,Side,Agents,R2.0,ACS,K,D,A,K/D,KAST,ADR,HS%,FK,FD,FK/FD
s0m,NRG,Corrode,All,"Omen, Viper",1.10,220,18,12,5,1.5,75%,140.2,25%,2,1,+1
s0m,NRG,Corrode,Attack,Omen,1.20,230,9,6,2,1.5,80%,150,30%,1,0,+1
Boaster,FNC,Corrode,All,Astra,0.90,180,12,18,8,0.67,70%,110,20%,1,2,-1
,FNC,Corrode,All,Astra,0.90,180,12,18,8,0.67,70%,110,20%,1,2,-1
`,
	"Playoffs/" + grandFinal + "/rounds/1Corrode_rounds.csv": `Map,Round Number,Score,Winning Team,Winning Side,Win Method
Corrode,1,1-0,NRG,attack,elimination
Corrode,2,1-1,FNATIC,defense,defuse
Corrode,x,,,,
Corrode,13,7-6,FNATIC,attack,
Corrode,25,13-12,NRG,defense,time-expired
`,
	"Playoffs/" + grandFinal + "/economy/1Corrode_rounds_economy.csv": `(BANK) NRG FNC (BANK),1 0.3k 0.4k,2 3.9k $$$,3 12.1k 8.5k
Team,1,2,3
(BANK) NRG FNC (BANK),bogus
`,
	"Playoffs/" + grandFinal + "/performance/1Corrode_All_Kills.csv": `,s0m NRG,Boaster FNC
s0m NRG,,3 1 +2
Boaster FNC,1 3 -2,0
`,
	"Playoffs/Unnamed_Folder/map_veto/map_veto.csv": "map,pick,ban\nBind,,NRG\n",
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	eventDir := filepath.Join(root, "2025", "Valorant_Champions_2025")
	for rel, body := range files {
		path := filepath.Join(eventDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	return root
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()
	s, err := sqlite.Open(ctx, sqlite.Config{DSN: "file:" + filepath.Join(t.TempDir(), "vlr.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func count(t *testing.T, s store.Store, query string) any {
	t.Helper()
	res, err := s.Query(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	for _, v := range res.Rows[0] {
		return v
	}
	return nil
}

func TestFindMatches(t *testing.T) {
	t.Parallel()

	root := writeTree(t, fixture)
	dirs, err := FindMatches(root)
	require.NoError(t, err)
	eventDir := filepath.Join(root, "2025", "Valorant_Champions_2025", "Playoffs")
	assert.Equal(t, []string{
		filepath.Join(eventDir, grandFinal),
		filepath.Join(eventDir, "Unnamed_Folder"),
	}, dirs)

	_, err = FindMatches(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestLoadTreeIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := writeTree(t, fixture)
	s := openStore(t)
	l, err := New(s, identity.NewRegistry(), Config{Workers: 2}, zap.NewNop())
	require.NoError(t, err)

	first, err := l.LoadTree(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Matches)
	assert.Equal(t, 1, first.Loaded)
	assert.Equal(t, 1, first.Failed)
	assert.Equal(t, map[string]int{
		"events":                 1,
		"teams":                  2,
		"players":                2,
		"agents":                 2,
		"matches":                1,
		"maps":                   1,
		"rounds":                 4,
		"map_veto":               4,
		"player_map_stats":       2,
		"round_economy":          5,
		"player_vs_player_kills": 2,
	}, first.Rows)

	second, err := l.LoadTree(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Loaded)
	assert.Empty(t, second.Rows)
	assert.EqualValues(t, 4, count(t, s, "SELECT COUNT(*) AS n FROM rounds"))

	// A fresh registry must resolve to the same ids.
	fresh, err := New(s, identity.NewRegistry(), Config{Workers: 1}, nil)
	require.NoError(t, err)
	third, err := fresh.LoadTree(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, third.Rows)
}

func TestLoadMatchContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := writeTree(t, fixture)
	s := openStore(t)
	l, err := New(s, nil, Config{}, nil)
	require.NoError(t, err)

	dir := filepath.Join(root, "2025", "Valorant_Champions_2025", "Playoffs", grandFinal)
	_, err = l.LoadMatch(ctx, root, dir)
	require.NoError(t, err)

	matchID := identity.Slugify(grandFinal)
	res, err := s.Query(ctx, "SELECT match_id, event_id, match_name, stage, team_a_id, team_b_id, source_url FROM matches")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, map[string]any{
		"match_id":   matchID,
		"event_id":   "valorant-champions-2025",
		"match_name": "NRG vs FNATIC",
		"stage":      "Playoffs- Grand Final",
		"team_a_id":  "nrg",
		"team_b_id":  "fnatic",
		"source_url": "https://www.vlr.gg/542195/nrg-vs-fnatic",
	}, res.Rows[0])

	res, err = s.Query(ctx, "SELECT order_no, action_type, team_id, map_name FROM map_veto ORDER BY order_no")
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)
	assert.Equal(t, []any{int64(1), "ban", "fnatic", "Bind"},
		[]any{res.Rows[0]["order_no"], res.Rows[0]["action_type"], res.Rows[0]["team_id"], res.Rows[0]["map_name"]})
	assert.EqualValues(t, 5, res.Rows[3]["order_no"])
	assert.Equal(t, "decider", res.Rows[3]["action_type"])
	assert.Nil(t, res.Rows[3]["team_id"])

	assert.EqualValues(t, 1, count(t, s, "SELECT map_number FROM maps WHERE map_name = 'Corrode'"))
	assert.Equal(t, "omen", count(t, s, "SELECT agent_id FROM player_map_stats WHERE player_id = 's0m-nrg'"))
	assert.EqualValues(t, 75, count(t, s, "SELECT kast FROM player_map_stats WHERE player_id = 's0m-nrg'"))
	assert.Equal(t, "fnatic", count(t, s, "SELECT team_id FROM player_map_stats WHERE player_id = 'boaster-fnatic'"))
	assert.Equal(t, "overtime", count(t, s, "SELECT phase FROM rounds WHERE round_number = 25"))
	assert.Equal(t, "second_half", count(t, s, "SELECT phase FROM rounds WHERE round_number = 13"))
	assert.Nil(t, count(t, s, "SELECT win_method FROM rounds WHERE round_number = 13"))
	assert.EqualValues(t, 2, count(t, s, "SELECT COUNT(*) FROM round_economy WHERE buy_tier = 'eco'"))
	assert.EqualValues(t, 0, count(t, s, "SELECT COUNT(*) FROM round_economy WHERE round_number = 2 AND team_id = 'fnatic'"))
	assert.EqualValues(t, 3, count(t, s,
		"SELECT kills_count FROM player_vs_player_kills WHERE killer_player_id = 's0m-nrg' AND victim_player_id = 'boaster-fnatic'"))
}

func TestLoadMatchFallsBackToConfiguredEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	files := make(map[string]string)
	for rel, body := range fixture {
		if rel != "event.json" {
			files[rel] = body
		}
	}
	root := writeTree(t, files)
	s := openStore(t)

	l, err := New(s, nil, Config{Event: EventDefault{Name: "Masters Toronto", Year: 2025}}, nil)
	require.NoError(t, err)
	_, err = l.LoadMatch(ctx, root, filepath.Join(root, "2025", "Valorant_Champions_2025", "Playoffs", grandFinal))
	require.NoError(t, err)
	assert.Equal(t, "masters-toronto", count(t, s, "SELECT event_id FROM events"))

	bare := openStore(t)
	l, err = New(bare, nil, Config{}, nil)
	require.NoError(t, err)
	_, err = l.LoadMatch(ctx, root, filepath.Join(root, "2025", "Valorant_Champions_2025", "Playoffs", grandFinal))
	require.NoError(t, err)
	assert.Equal(t, "Valorant Champions 2025", count(t, bare, "SELECT event_name FROM events"))
	assert.EqualValues(t, 2025, count(t, bare, "SELECT season_year FROM events"))
}

func TestLoadMatchIgnoresPlaceholderWinners(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	files := make(map[string]string)
	for rel, body := range fixture {
		files[rel] = body
	}
	files["Playoffs/"+grandFinal+"/rounds/1Corrode_rounds.csv"] = `Map,Round Number,Score,Winning Team,Winning Side,Win Method
Corrode,1,1-0,T1,Defenders,elimination
Corrode,2,1-1,T2,Attackers,defuse
Corrode,3,2-1,NRG,Defenders,elimination
`
	root := writeTree(t, files)
	s := openStore(t)
	l, err := New(s, nil, Config{}, nil)
	require.NoError(t, err)

	_, err = l.LoadMatch(ctx, root, filepath.Join(root, "2025", "Valorant_Champions_2025", "Playoffs", grandFinal))
	require.NoError(t, err)
	assert.EqualValues(t, 0, count(t, s, "SELECT COUNT(*) FROM teams WHERE team_id IN ('t1', 't2')"))
	assert.EqualValues(t, 2, count(t, s, "SELECT COUNT(*) FROM rounds WHERE winning_team_id IS NULL"))
	assert.Equal(t, "nrg", count(t, s, "SELECT winning_team_id FROM rounds WHERE round_number = 3"))
}

type failingStore struct {
	store.Store
}

func (s failingStore) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingTx{Tx: tx}, nil
}

type failingTx struct {
	store.Tx
}

func (failingTx) InsertKill(context.Context, store.Kill) (bool, error) {
	return false, errors.New("disk full")
}

func TestLoadMatchRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := writeTree(t, fixture)
	s := openStore(t)
	l, err := New(failingStore{Store: s}, nil, Config{Workers: 2}, nil)
	require.NoError(t, err)

	sum, err := l.LoadTree(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Loaded)
	assert.Equal(t, 2, sum.Failed)
	assert.EqualValues(t, 0, count(t, s, "SELECT COUNT(*) FROM matches"))
	assert.EqualValues(t, 0, count(t, s, "SELECT COUNT(*) FROM teams"))
}

func TestLoadTreeStopsOnCancel(t *testing.T) {
	t.Parallel()

	root := writeTree(t, fixture)
	l, err := New(openStore(t), nil, Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := l.LoadTree(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sum.Loaded)
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil, Config{}, nil)
	assert.Error(t, err)
}
