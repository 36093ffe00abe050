package identity

import (
	"strings"
	"sync"
)

// Alias maps a short team tag to its canonical slug. The short form matches anywhere inside
// a slug.
type Alias struct {
	Short     string `mapstructure:"short"`
	Canonical string `mapstructure:"canonical"`
}

// DefaultAliases is scanned in order; the first contained short form wins.
var DefaultAliases = []Alias{
	{Short: "fnc", Canonical: "fnatic"},
	{Short: "prx", Canonical: "paper-rex"},
	{Short: "nrg", Canonical: "nrg"},
	{Short: "drx", Canonical: "drx"},
	{Short: "th", Canonical: "team-heretics"},
	{Short: "mibr", Canonical: "mibr"},
	{Short: "g2", Canonical: "g2-esports"},
	{Short: "gia", Canonical: "giantx"},
}

type playerKey struct {
	name string
	team string
}

// Registry caches name to id resolution for one ingestion run. It is safe for concurrent
// use; a cache miss is computed and stored under the same lock so two goroutines can never
// publish different ids for one input.
type Registry struct {
	mu      sync.Mutex
	aliases []Alias
	teams   map[string]string
	players map[playerKey]string
}

// NewRegistry builds a Registry using DefaultAliases followed by extra.
func NewRegistry(extra ...Alias) *Registry {
	aliases := make([]Alias, 0, len(DefaultAliases)+len(extra))
	aliases = append(aliases, DefaultAliases...)
	for _, a := range extra {
		short := Slugify(a.Short)
		canonical := Slugify(a.Canonical)
		if short == "" || canonical == "" {
			continue
		}
		aliases = append(aliases, Alias{Short: short, Canonical: canonical})
	}
	return &Registry{
		aliases: aliases,
		teams:   make(map[string]string),
		players: make(map[playerKey]string),
	}
}

// TeamID returns the canonical team id for name, or "" when name is blank.
func (r *Registry) TeamID(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teamIDLocked(name)
}

func (r *Registry) teamIDLocked(name string) string {
	if id, ok := r.teams[name]; ok {
		return id
	}
	id := Slugify(name)
	for _, a := range r.aliases {
		if strings.Contains(id, a.Short) {
			id = a.Canonical
			break
		}
	}
	r.teams[name] = id
	return id
}

// PlayerID returns the player id for name. When team resolves to an id, it is appended as
// a suffix so identical handles on different teams stay distinct.
func (r *Registry) PlayerID(name, team string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	key := playerKey{name: name, team: team}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.players[key]; ok {
		return id
	}
	id := Slugify(name)
	if id == "" {
		r.players[key] = ""
		return ""
	}
	if strings.TrimSpace(team) != "" {
		if teamID := r.teamIDLocked(team); teamID != "" {
			id = id + "-" + teamID
		}
	}
	r.players[key] = id
	return id
}

// AgentID returns the plain slug of an agent name.
func (r *Registry) AgentID(name string) string {
	return Slugify(name)
}
