package collector

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mshayan3/vlrscrape/internal/artifact"
)

// ErrStructureMissing is returned when an expected page structure is absent.
var ErrStructureMissing = errors.New("page structure missing")

// AllGameID is the selector id of the all-maps view.
const AllGameID = "all"

// Headers of the artifacts this package writes.
var (
	VetoHeader        = []string{"map", "pick", "ban"}
	PlayerStatsHeader = []string{
		"Player", "Team", "Map", "Side", "Agents", "R2.0", "ACS", "K", "D", "A",
		"K/D", "KAST", "ADR", "HS%", "FK", "FD", "FK/FD",
	}
	RoundsHeader = []string{"Map", "Round Number", "Score", "Winning Team", "Winning Side", "Win Method"}
)

// MapSelector is one entry of a match page's map switcher.
type MapSelector struct {
	Index  int
	GameID string
	// Name is the compact control text, e.g. "1Corrode".
	Name string
	// Label names the player_stats file: All_Maps or Map_{idx}_{name}.
	Label string
}

// FileName is the prefix used for per-map rounds, economy and performance files.
func (s MapSelector) FileName() string {
	if s.GameID == AllGameID || s.Index == 0 {
		return artifact.AllMapsLabel
	}
	return s.Name
}

// MapSelectors reads the map switcher. Index follows page order, including controls that
// are skipped for lacking a name or game id.
func MapSelectors(doc *goquery.Document) []MapSelector {
	var out []MapSelector
	doc.Find(".vm-stats-gamesnav-item.js-map-switch").Each(func(i int, s *goquery.Selection) {
		name := artifact.MapName(s.Text())
		id, _ := s.Attr("data-game-id")
		id = strings.TrimSpace(id)
		if name == "" || id == "" {
			return
		}
		out = append(out, MapSelector{Index: i, GameID: id, Name: name, Label: artifact.MapLabel(i, name)})
	})
	return out
}

// withAllMaps appends the all-maps selector when the page did not list it.
func withAllMaps(sels []MapSelector) []MapSelector {
	for _, s := range sels {
		if s.GameID == AllGameID {
			return sels
		}
	}
	return append(sels, MapSelector{Index: 0, GameID: AllGameID, Name: artifact.AllMapsLabel, Label: artifact.AllMapsLabel})
}

// MatchHeader is the identifying text of a match page.
type MatchHeader struct {
	Team1  string
	Team2  string
	Series string
}

// ParseHeader reads the team names and event series from the match header.
func ParseHeader(doc *goquery.Document) (MatchHeader, error) {
	var teams []string
	doc.Find(".match-header-vs .wf-title-med").Each(func(_ int, s *goquery.Selection) {
		teams = append(teams, strings.TrimSpace(s.Text()))
	})
	if len(teams) < 2 || teams[0] == "" || teams[1] == "" {
		return MatchHeader{}, fmt.Errorf("match header: %w", ErrStructureMissing)
	}
	series := strings.Join(strings.Fields(doc.Find(".match-header-event-series").First().Text()), " ")
	if series == "" {
		series = "Unknown_Event"
	}
	return MatchHeader{Team1: teams[0], Team2: teams[1], Series: series}, nil
}

// FolderName is "{team1}_vs_{team2}_{series}" with illegal characters replaced, or
// "match_{last path segment}" when the header could not be read.
func FolderName(h MatchHeader, matchURL string) string {
	if h.Team1 != "" && h.Team2 != "" {
		return artifact.CleanName(fmt.Sprintf("%s_vs_%s_%s", h.Team1, h.Team2, h.Series))
	}
	seg := "unknown"
	if u, err := url.Parse(matchURL); err == nil {
		if base := path.Base(strings.TrimRight(u.Path, "/")); base != "." && base != "/" && base != "" {
			seg = base
		}
	}
	return "match_" + seg
}

var vetoMapToken = regexp.MustCompile(`(?i)\b(?:ban|pick)\s+([A-Za-z0-9\-]+)`)

type vetoEntry struct {
	name string
	pick string
	ban  string
}

// ParseVeto reads the header note ("FNC ban Bind; NRG ban Haven; ...; Lotus remains") into
// map,pick,ban rows in note order. A mentioned map that was neither picked nor banned is
// the decider; with several candidates the first mentioned wins.
func ParseVeto(doc *goquery.Document) ([][]string, error) {
	note := doc.Find(".match-header-note").First()
	if note.Length() == 0 {
		return nil, fmt.Errorf("veto note: %w", ErrStructureMissing)
	}
	text := strings.TrimSpace(note.Text())

	var mentions []string
	seen := make(map[string]bool)
	mention := func(m string) {
		if k := strings.ToLower(m); !seen[k] {
			seen[k] = true
			mentions = append(mentions, m)
		}
	}
	for _, m := range vetoMapToken.FindAllStringSubmatch(text, -1) {
		mention(m[1])
	}

	var entries []*vetoEntry
	byMap := make(map[string]*vetoEntry)
	for _, raw := range strings.Split(text, ";") {
		parts := strings.Fields(raw)
		if len(parts) == 2 && strings.EqualFold(parts[1], "remains") {
			mention(parts[0])
			continue
		}
		if len(parts) < 3 {
			continue
		}
		team, action, mapName := parts[0], strings.ToLower(parts[1]), parts[2]
		if action != "ban" && action != "pick" {
			continue
		}
		key := strings.ToLower(mapName)
		e, ok := byMap[key]
		if !ok {
			e = &vetoEntry{name: mapName}
			byMap[key] = e
			entries = append(entries, e)
		}
		if action == "ban" {
			e.ban = team
		} else {
			e.pick = team
		}
	}

	for _, m := range mentions {
		e, ok := byMap[strings.ToLower(m)]
		if ok && (e.pick != "" || e.ban != "") {
			continue
		}
		if !ok {
			e = &vetoEntry{name: m}
			entries = append(entries, e)
		}
		e.pick = "decider"
		break
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("veto entries: %w", ErrStructureMissing)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.name, e.pick, e.ban})
	}
	return rows, nil
}

var sides = []struct {
	label string
	class string
}{
	{"All", ".mod-stat .side.mod-both"},
	{"Attack", ".mod-stat .side.mod-t"},
	{"Defend", ".mod-stat .side.mod-ct"},
}

func gameContainer(doc *goquery.Document, gameID string) *goquery.Selection {
	return doc.Find(fmt.Sprintf(`.vm-stats-game[data-game-id="%s"]`, gameID)).First()
}

func firstText(s *goquery.Selection, selector, fallback string) string {
	if t := strings.TrimSpace(s.Find(selector).First().Text()); t != "" {
		return t
	}
	return fallback
}

// ParsePlayerStats returns one row per player and side for a map. Rows without stats are
// dropped.
func ParsePlayerStats(doc *goquery.Document, sel MapSelector) [][]string {
	players := gameContainer(doc, sel.GameID).Find("tbody tr")
	var rows [][]string
	for _, side := range sides {
		players.Each(func(_ int, tr *goquery.Selection) {
			var stats []string
			tr.Find(side.class).Each(func(_ int, s *goquery.Selection) {
				stats = append(stats, strings.TrimSpace(s.Text()))
			})
			if len(stats) == 0 {
				return
			}
			var agents []string
			tr.Find(".mod-agent img").Each(func(_ int, img *goquery.Selection) {
				if title, ok := img.Attr("title"); ok && title != "" {
					agents = append(agents, title)
				}
			})
			row := []string{
				firstText(tr, ".text-of", "Unknown"),
				firstText(tr, ".ge-text-light", "Unknown"),
				sel.Label,
				side.label,
				strings.Join(agents, ", "),
			}
			rows = append(rows, append(row, stats...))
		})
	}
	return rows
}

// Win methods derived from round icons.
const (
	MethodElimination = "Elimination"
	MethodDetonation  = "Spike Detonation"
	MethodDefuse      = "Defuse"
	MethodTime        = "Time Expired"
)

// WinMethod classifies a round icon source. Unknown icons yield "".
func WinMethod(src string) string {
	switch {
	case strings.Contains(src, "elim"):
		return MethodElimination
	case strings.Contains(src, "boom"):
		return MethodDetonation
	case strings.Contains(src, "defuse"):
		return MethodDefuse
	case strings.Contains(src, "time"):
		return MethodTime
	default:
		return ""
	}
}

// ParseRounds returns one row per played round of a map.
func ParseRounds(doc *goquery.Document, sel MapSelector) [][]string {
	var rows [][]string
	gameContainer(doc, sel.GameID).Find(".vlr-rounds").Each(func(_ int, section *goquery.Selection) {
		team1, team2 := artifact.PlaceholderTeam1, artifact.PlaceholderTeam2
		if teams := section.Find(".team"); teams.Length() >= 2 {
			team1 = strings.TrimSpace(teams.Eq(0).Text())
			team2 = strings.TrimSpace(teams.Eq(1).Text())
		}
		section.Find(".vlr-rounds-row-col[title]").Each(func(_ int, col *goquery.Selection) {
			score, _ := col.Attr("title")
			var winner, side string
			if win := col.Find(".rnd-sq.mod-win").First(); win.Length() > 0 {
				if win.HasClass("mod-ct") {
					winner, side = team1, "Defenders"
				} else {
					winner, side = team2, "Attackers"
				}
			}
			src, _ := col.Find(".rnd-sq img").First().Attr("src")
			rows = append(rows, []string{
				sel.Name,
				firstText(col, ".rnd-num", "Unknown"),
				strings.TrimSpace(score),
				winner,
				side,
				WinMethod(src),
			})
		})
	})
	return rows
}

// TableRows flattens an HTML table: one row per tr, one cell per td/th holding the
// space-joined trimmed text nodes beneath it.
func TableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strippedText(cell))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows
}

func strippedText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}

// EconomyTables returns the summary and per-round bank tables of one map's economy view.
func EconomyTables(doc *goquery.Document, gameID string) (summary, perRound [][]string, err error) {
	container := gameContainer(doc, gameID)
	if container.Length() == 0 {
		return nil, nil, fmt.Errorf("economy container %s: %w", gameID, ErrStructureMissing)
	}
	tables := container.Find("table.wf-table-inset.mod-econ")
	if tables.Length() == 0 {
		return nil, nil, fmt.Errorf("economy tables %s: %w", gameID, ErrStructureMissing)
	}
	summary = TableRows(tables.Eq(0))
	if tables.Length() > 1 {
		perRound = TableRows(tables.Eq(1))
	}
	return summary, perRound, nil
}

var performanceTables = []struct {
	kind     string
	selector string
}{
	{artifact.PerfAllKills, "table.wf-table-inset.mod-matrix.mod-normal"},
	{artifact.PerfFirstKills, "table.wf-table-inset.mod-matrix.mod-fkfd"},
	{artifact.PerfOpKills, "table.wf-table-inset.mod-matrix.mod-op"},
	{artifact.PerfAdvancedStats, "table.wf-table-inset.mod-adv-stats"},
}

// PerformanceTables returns the kill matrices and advanced stats found for one map, keyed
// by artifact kind.
func PerformanceTables(doc *goquery.Document, gameID string) (map[string][][]string, error) {
	container := gameContainer(doc, gameID)
	if container.Length() == 0 {
		return nil, fmt.Errorf("performance container %s: %w", gameID, ErrStructureMissing)
	}
	out := make(map[string][][]string)
	for _, pt := range performanceTables {
		if table := container.Find(pt.selector).First(); table.Length() > 0 {
			out[pt.kind] = TableRows(table)
		}
	}
	return out, nil
}
