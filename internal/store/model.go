package store

// Event is a tournament.
type Event struct {
	ID     string
	Name   string
	Year   int
	Source string
}

// Team is a roster as referenced by any artifact.
type Team struct {
	ID     string
	Name   string
	Region *string
}

// Player is one handle, team-suffixed when the team is known.
type Player struct {
	ID     string
	Name   string
	TeamID *string
}

// Agent is a playable character.
type Agent struct {
	ID   string
	Name string
}

// Match is one series between two teams.
type Match struct {
	ID        string
	EventID   string
	Name      string
	Stage     string
	TeamAID   string
	TeamBID   string
	SourceURL *string
}

// Map is one game of a match.
type Map struct {
	ID      string
	MatchID string
	Number  int
	Name    string
}

// Round is the outcome of one round on a map.
type Round struct {
	ID            string
	MapID         string
	Number        int
	Score         string
	WinningTeamID *string
	WinningSide   *string
	WinMethod     *string
	Phase         string
}

// Veto actions.
const (
	VetoPick    = "pick"
	VetoBan     = "ban"
	VetoDecider = "decider"
)

// Veto is one step of the map pick/ban phase.
type Veto struct {
	ID      string
	MatchID string
	Order   int
	TeamID  *string
	Action  string
	MapName string
}

// PlayerMapStat is a player's combined-side line for one map.
type PlayerMapStat struct {
	ID       string
	MapID    string
	PlayerID string
	TeamID   *string
	AgentID  *string
	ACS      *float64
	Kills    *int
	Deaths   *int
	Assists  *int
	ADR      *float64
	KAST     *float64
	HSPct    *float64
	Rating   *float64
	FK       *int
	FD       *int
}

// RoundEconomy is one team's bank at the start of a round.
type RoundEconomy struct {
	ID      string
	MapID   string
	Round   int
	TeamID  string
	Credits int
	BuyTier string
}

// Kill is a directed elimination count between two players on a map.
type Kill struct {
	ID           string
	MapID        string
	KillerID     string
	VictimID     string
	KillerTeamID *string
	VictimTeamID *string
	Count        int
}

// Result is the outcome of a read-only query.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// NullString returns nil for an empty string.
func NullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
