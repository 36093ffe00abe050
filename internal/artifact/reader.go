package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedRow marks a row that failed validation.
var ErrMalformedRow = errors.New("malformed row")

// RowError records a skipped row and why.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Table holds the valid rows of one artifact file and the rows that were rejected.
type Table[T any] struct {
	Rows    []T
	Invalid []RowError
}

func (t *Table[T]) reject(line int, format string, args ...any) {
	t.Invalid = append(t.Invalid, RowError{
		Line: line,
		Err:  fmt.Errorf("%w: %s", ErrMalformedRow, fmt.Sprintf(format, args...)),
	})
}

// readRecords loads every record of a CSV file, tolerating ragged rows and stray quotes.
func readRecords(path string) ([][]string, error) {
	// #nosec G304 -- artifact paths come from walking the configured tree.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, rec)
	}
}

// header maps normalized column names to positions.
type header map[string]int

func newHeader(rec []string) header {
	h := make(header, len(rec))
	for i, name := range rec {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

// get returns the trimmed value of the first present column among names.
func (h header) get(rec []string, names ...string) string {
	for _, n := range names {
		if i, ok := h[strings.ToLower(n)]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

func (h header) has(names ...string) bool {
	for _, n := range names {
		if _, ok := h[strings.ToLower(n)]; ok {
			return true
		}
	}
	return false
}

// VetoRow is one line of map_veto.csv. Position is the 1-based data row index.
type VetoRow struct {
	Position int
	Map      string
	Pick     string
	Ban      string
}

// ReadVeto reads a map_veto.csv artifact.
func ReadVeto(path string) (Table[VetoRow], error) {
	var t Table[VetoRow]
	recs, err := readRecords(path)
	if err != nil || len(recs) == 0 {
		return t, err
	}
	h := newHeader(recs[0])
	if !h.has("map") {
		return t, fmt.Errorf("veto %s: missing map column", path)
	}
	for i, rec := range recs[1:] {
		row := VetoRow{
			Position: i + 1,
			Map:      h.get(rec, "map"),
			Pick:     h.get(rec, "pick"),
			Ban:      h.get(rec, "ban"),
		}
		if row.Map == "" {
			t.reject(i+2, "empty map")
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// PlayerStatRow is one line of a player_stats artifact. Percentages are on a 0 to 100
// scale.
type PlayerStatRow struct {
	Player  string
	Team    string
	Map     string
	Side    string
	Agents  []string
	Rating  *float64
	ACS     *float64
	Kills   *int
	Deaths  *int
	Assists *int
	KAST    *float64
	ADR     *float64
	HSPct   *float64
	FK      *int
	FD      *int
}

// ReadPlayerStats reads a player_stats artifact.
func ReadPlayerStats(path string) (Table[PlayerStatRow], error) {
	var t Table[PlayerStatRow]
	recs, err := readRecords(path)
	if err != nil || len(recs) == 0 {
		return t, err
	}
	h := newHeader(recs[0])
	if !h.has("player") || !h.has("side") {
		return t, fmt.Errorf("player stats %s: missing player or side column", path)
	}
	for i, rec := range recs[1:] {
		line := i + 2
		row := PlayerStatRow{
			Player: h.get(rec, "player"),
			Team:   h.get(rec, "team"),
			Map:    h.get(rec, "map"),
			Side:   h.get(rec, "side"),
			Agents: splitAgents(h.get(rec, "agents")),
		}
		if row.Player == "" {
			t.reject(line, "empty player")
			continue
		}
		var p numParser
		row.Rating = p.decimal(h.get(rec, "R2.0", "Rating", "R"))
		row.ACS = p.decimal(h.get(rec, "ACS"))
		row.Kills = p.integer(h.get(rec, "K"))
		row.Deaths = p.integer(h.get(rec, "D"))
		row.Assists = p.integer(h.get(rec, "A"))
		row.KAST = p.percent(h.get(rec, "KAST"))
		row.ADR = p.decimal(h.get(rec, "ADR"))
		row.HSPct = p.percent(h.get(rec, "HS%"))
		row.FK = p.integer(h.get(rec, "FK"))
		row.FD = p.integer(h.get(rec, "FD"))
		if p.err != nil {
			t.reject(line, "%v", p.err)
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func splitAgents(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// numParser parses optional numeric cells and keeps the first failure.
type numParser struct {
	err error
}

func (p *numParser) decimal(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("number %q", s)
		}
		return nil
	}
	return &v
}

func (p *numParser) percent(s string) *float64 {
	return p.decimal(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

func (p *numParser) integer(s string) *int {
	f := p.decimal(s)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

// RoundRow is one line of a rounds artifact.
type RoundRow struct {
	Map         string
	Number      int
	Score       string
	WinningTeam string
	WinningSide string
	WinMethod   string
}

// ReadRounds reads a rounds artifact. Rows without a round number or score are rejected.
func ReadRounds(path string) (Table[RoundRow], error) {
	var t Table[RoundRow]
	recs, err := readRecords(path)
	if err != nil || len(recs) == 0 {
		return t, err
	}
	h := newHeader(recs[0])
	for i, rec := range recs[1:] {
		line := i + 2
		n, err := strconv.Atoi(h.get(rec, "Round Number"))
		if err != nil || n <= 0 {
			t.reject(line, "round number %q", h.get(rec, "Round Number"))
			continue
		}
		row := RoundRow{
			Map:         h.get(rec, "Map"),
			Number:      n,
			Score:       h.get(rec, "Score"),
			WinningTeam: h.get(rec, "Winning Team"),
			WinningSide: h.get(rec, "Winning Side"),
			WinMethod:   h.get(rec, "Win Method"),
		}
		if row.Score == "" {
			t.reject(line, "empty score for round %d", n)
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// BankCell is one "(BANK)" cell of the per-round economy matrix. Credits stay raw for the
// caller to interpret.
type BankCell struct {
	Round   int
	CreditA string
	CreditB string
}

// ReadEconomyMatrix reads the rounds_economy visual matrix. Only records whose first cell
// starts with "(BANK)" contribute; each following cell reads "round creditsA creditsB".
func ReadEconomyMatrix(path string) (Table[BankCell], error) {
	var t Table[BankCell]
	recs, err := readRecords(path)
	if err != nil {
		return t, err
	}
	for i, rec := range recs {
		if len(rec) < 2 || !strings.HasPrefix(strings.TrimSpace(rec[0]), "(BANK)") {
			continue
		}
		for _, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			parts := strings.Fields(cell)
			if len(parts) < 3 {
				t.reject(i+1, "bank cell %q", cell)
				continue
			}
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				t.reject(i+1, "bank round %q", parts[0])
				continue
			}
			t.Rows = append(t.Rows, BankCell{Round: n, CreditA: parts[1], CreditB: parts[2]})
		}
	}
	return t, nil
}

// KillCell is one directed edge of the kill matrix.
type KillCell struct {
	Killer     string
	KillerTeam string
	Victim     string
	VictimTeam string
	Count      int
}

// SplitPlayerLabel splits a "<name> <TEAM>" label on its last space.
func SplitPlayerLabel(label string) (name, team string, ok bool) {
	label = strings.TrimSpace(label)
	i := strings.LastIndex(label, " ")
	if i <= 0 || i == len(label)-1 {
		return "", "", false
	}
	return strings.TrimSpace(label[:i]), label[i+1:], true
}

// ReadKillMatrix reads an All_Kills performance matrix: rows are killers, columns are
// victims. Zero, blank and self cells are dropped; unparsable cells are rejected.
func ReadKillMatrix(path string) (Table[KillCell], error) {
	var t Table[KillCell]
	recs, err := readRecords(path)
	if err != nil || len(recs) < 2 {
		return t, err
	}
	type label struct {
		name, team string
		ok         bool
	}
	victims := make([]label, len(recs[0]))
	for j := 1; j < len(recs[0]); j++ {
		n, tm, ok := SplitPlayerLabel(recs[0][j])
		victims[j] = label{n, tm, ok}
	}
	for i, rec := range recs[1:] {
		line := i + 2
		if len(rec) == 0 {
			continue
		}
		killer, killerTeam, ok := SplitPlayerLabel(rec[0])
		if !ok {
			t.reject(line, "killer label %q", rec[0])
			continue
		}
		for j := 1; j < len(rec) && j < len(victims); j++ {
			v := victims[j]
			cell := strings.TrimSpace(rec[j])
			if !v.ok || cell == "" {
				continue
			}
			n, err := strconv.Atoi(strings.Fields(cell)[0])
			if err != nil {
				t.reject(line, "kill cell %q", cell)
				continue
			}
			if n <= 0 || (killer == v.name && killerTeam == v.team) {
				continue
			}
			t.Rows = append(t.Rows, KillCell{
				Killer: killer, KillerTeam: killerTeam,
				Victim: v.name, VictimTeam: v.team,
				Count: n,
			})
		}
	}
	return t, nil
}
