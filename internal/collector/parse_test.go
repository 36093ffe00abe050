package collector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDoc(t *testing.T, name string) *goquery.Document {
	t.Helper()
	return docFromString(t, readFixture(t, name))
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	// #nosec G304 -- fixtures live in testdata.
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestMapSelectors(t *testing.T) {
	t.Parallel()

	sels := MapSelectors(loadDoc(t, "match.html"))
	require.Len(t, sels, 3)
	assert.Equal(t, MapSelector{Index: 0, GameID: "all", Name: "AllMaps", Label: "All_Maps"}, sels[0])
	assert.Equal(t, MapSelector{Index: 1, GameID: "101", Name: "1Lotus", Label: "Map_1_1Lotus"}, sels[1])
	assert.Equal(t, "Map_2_2Ascent", sels[2].Label)
	assert.Equal(t, "All_Maps", sels[0].FileName())
	assert.Equal(t, "1Lotus", sels[1].FileName())
}

func TestMapSelectorsKeepPageIndex(t *testing.T) {
	t.Parallel()

	doc := docFromString(t, `<div class="vm-stats-gamesnav-item js-map-switch" data-game-id="all">All Maps</div>
<div class="vm-stats-gamesnav-item js-map-switch">1 Bind</div>
<div class="vm-stats-gamesnav-item js-map-switch" data-game-id="7">2 Pearl</div>`)
	sels := MapSelectors(doc)
	require.Len(t, sels, 2)
	assert.Equal(t, "Map_2_2Pearl", sels[1].Label)
}

func TestParseHeaderAndFolderName(t *testing.T) {
	t.Parallel()

	h, err := ParseHeader(loadDoc(t, "match.html"))
	require.NoError(t, err)
	assert.Equal(t, MatchHeader{Team1: "FNATIC", Team2: "NRG Esports", Series: "Playoffs: Grand Final"}, h)
	assert.Equal(t, "FNATIC_vs_NRG_Esports_Playoffs-_Grand_Final", FolderName(h, "https://www.vlr.gg/1/x"))

	_, err = ParseHeader(docFromString(t, "<html></html>"))
	assert.ErrorIs(t, err, ErrStructureMissing)
	assert.Equal(t, "match_fnc-vs-nrg", FolderName(MatchHeader{}, "https://www.vlr.gg/353/fnc-vs-nrg/"))
}

func TestParseVetoDecider(t *testing.T) {
	t.Parallel()

	rows, err := ParseVeto(loadDoc(t, "match.html"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Bind", "", "FNC"},
		{"Haven", "", "NRG"},
		{"Lotus", "FNC", ""},
		{"Ascent", "NRG", ""},
		{"Icebox", "", "FNC"},
		{"Sunset", "", "NRG"},
		{"Split", "decider", ""},
	}, rows)
}

func TestParseVetoFirstCandidateWins(t *testing.T) {
	t.Parallel()

	doc := docFromString(t, `<div class="match-header-note">A ban Bind; B ban Haven; pick Lotus or pick Pearl</div>`)
	rows, err := ParseVeto(doc)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Bind", "", "A"},
		{"Haven", "", "B"},
		{"Lotus", "decider", ""},
	}, rows)
}

func TestParseVetoMissing(t *testing.T) {
	t.Parallel()

	_, err := ParseVeto(docFromString(t, "<html></html>"))
	assert.ErrorIs(t, err, ErrStructureMissing)
	_, err = ParseVeto(docFromString(t, `<div class="match-header-note">Bo1</div>`))
	assert.ErrorIs(t, err, ErrStructureMissing)
}

func TestParsePlayerStats(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, "match.html")
	sels := MapSelectors(doc)

	all := ParsePlayerStats(doc, sels[0])
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Boaster", "FNC", "All_Maps", "All", "Astra, Omen", "1.05", "201"}, all[0])
	assert.Equal(t, []string{"Boaster", "FNC", "All_Maps", "Attack", "Astra, Omen", "1.10", "210"}, all[1])
	assert.Equal(t, "Defend", all[2][3])

	lotus := ParsePlayerStats(doc, sels[1])
	require.Len(t, lotus, 3)
	for _, r := range lotus {
		assert.Equal(t, "Boaster", r[0])
	}
	assert.Empty(t, ParsePlayerStats(doc, sels[2]))
}

func TestParseRounds(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, "match.html")
	sels := MapSelectors(doc)
	assert.Equal(t, [][]string{
		{"1Lotus", "1", "1-0", "FNC", "Defenders", "Elimination"},
		{"1Lotus", "2", "1-1", "NRG", "Attackers", "Spike Detonation"},
		{"1Lotus", "3", "2-1", "FNC", "Defenders", ""},
	}, ParseRounds(doc, sels[1]))
	assert.Empty(t, ParseRounds(doc, sels[0]))
}

func TestWinMethod(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MethodElimination, WinMethod("/img/round/elim.webp"))
	assert.Equal(t, MethodDetonation, WinMethod("/img/round/boom.webp"))
	assert.Equal(t, MethodDefuse, WinMethod("/img/round/defuse.webp"))
	assert.Equal(t, MethodTime, WinMethod("/img/round/time.webp"))
	assert.Equal(t, "", WinMethod("/img/round/unknown.webp"))
	assert.Equal(t, "", WinMethod(""))
}

func TestEconomyTables(t *testing.T) {
	t.Parallel()

	doc := docFromString(t, strings.ReplaceAll(readFixture(t, "economy.html"), "{{GAME}}", "101"))
	summary, perRound, err := EconomyTables(doc, "101")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"", "Pistol Won", "Eco (won)"}, {"FNC", "2", "3 (1)"}}, summary)
	assert.Equal(t, [][]string{{"(BANK) FNC NRG (BANK)", "1 0.3k 0.4k", "2 3.1k 9.0k"}}, perRound)

	_, _, err = EconomyTables(doc, "999")
	assert.ErrorIs(t, err, ErrStructureMissing)
}

func TestPerformanceTables(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, "performance.html")
	all, err := PerformanceTables(doc, "all")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"", "s0m NRG"}, {"Boaster FNC", "3 2 +1"}}, all["All_Kills"])
	assert.NotContains(t, all, "Op_Kills")

	lotus, err := PerformanceTables(doc, "101")
	require.NoError(t, err)
	assert.Len(t, lotus, 3)
	assert.Equal(t, [][]string{{"Player", "2K"}, {"Boaster FNC", "1"}}, lotus["advanced_stats"])
}

func TestParseSkip(t *testing.T) {
	t.Parallel()

	skip, err := ParseSkip([]string{"Economy", " performance ", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"economy": true, "performance": true}, skip)

	_, err = ParseSkip([]string{"highlights"})
	assert.Error(t, err)
}
