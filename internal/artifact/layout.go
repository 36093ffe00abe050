// Package artifact owns the on-disk artifact tree shared by the crawler and the loader:
// folder layout, CSV writing and typed row readers.
package artifact

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Artifact categories. Each is a sub-directory of a match folder.
const (
	CategoryVeto        = "map_veto"
	CategoryStats       = "player_stats"
	CategoryRounds      = "rounds"
	CategoryEconomy     = "economy"
	CategoryPerformance = "performance"
)

// Manifest and marker file names.
const (
	EventManifest = "event.json"
	MatchManifest = "match.json"
	VetoFile      = "map_veto.csv"
	AllMapsLabel  = "All_Maps"
)

// Performance table kinds.
const (
	PerfAllKills      = "All_Kills"
	PerfFirstKills    = "First_Kills"
	PerfOpKills       = "Op_Kills"
	PerfAdvancedStats = "advanced_stats"
)

// Winning-team placeholders of a rounds file whose team header could not be read.
const (
	PlaceholderTeam1 = "T1"
	PlaceholderTeam2 = "T2"
)

// IsPlaceholderTeam reports whether name is a rounds placeholder rather than a team.
func IsPlaceholderTeam(name string) bool {
	name = strings.TrimSpace(name)
	return name == PlaceholderTeam1 || name == PlaceholderTeam2
}

// CompletionMarker is the file whose presence marks a match as already collected.
var CompletionMarker = filepath.Join(CategoryStats, AllMapsLabel+".csv")

var (
	illegalChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespace   = regexp.MustCompile(`\s+`)
	mapFileName  = regexp.MustCompile(`^Map_(\d+)_(.+)\.csv$`)
	leadingDigit = regexp.MustCompile(`^\d+`)
)

// CleanName replaces filename-illegal characters with "-", turns whitespace runs into "_"
// and collapses doubled underscores.
func CleanName(s string) string {
	s = illegalChars.ReplaceAllString(strings.TrimSpace(s), "-")
	s = whitespace.ReplaceAllString(s, "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// MapName is the compact name of a map selector control: whitespace removed and illegal
// characters replaced.
func MapName(control string) string {
	return illegalChars.ReplaceAllString(whitespace.ReplaceAllString(control, ""), "-")
}

// MapLabel is the player_stats file label for selector index idx.
func MapLabel(idx int, name string) string {
	if idx == 0 {
		return AllMapsLabel
	}
	return fmt.Sprintf("Map_%d_%s", idx, name)
}

// ParseMapFile extracts the map number and raw name from a per-map player_stats file name.
func ParseMapFile(file string) (int, string, bool) {
	m := mapFileName.FindStringSubmatch(file)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}

// CleanMapName strips the selector's leading ordinal from a raw map name ("1Corrode" →
// "Corrode").
func CleanMapName(raw string) string {
	return leadingDigit.ReplaceAllString(raw, "")
}

// StatsFile returns the player_stats path for label.
func StatsFile(label string) string {
	return filepath.Join(CategoryStats, label+".csv")
}

// RoundsFile returns the rounds path for a raw map name.
func RoundsFile(name string) string {
	return filepath.Join(CategoryRounds, name+"_rounds.csv")
}

// EconomyFile returns the economy summary path for a raw map name.
func EconomyFile(name string) string {
	return filepath.Join(CategoryEconomy, name+"_economy.csv")
}

// RoundsEconomyFile returns the per-round bank matrix path for a raw map name.
func RoundsEconomyFile(name string) string {
	return filepath.Join(CategoryEconomy, name+"_rounds_economy.csv")
}

// PerformanceFile returns the performance path for a raw map name and table kind.
func PerformanceFile(name, kind string) string {
	return filepath.Join(CategoryPerformance, name+"_"+kind+".csv")
}

// VetoPath returns the veto artifact path.
func VetoPath() string {
	return filepath.Join(CategoryVeto, VetoFile)
}
