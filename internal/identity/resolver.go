package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/mshayan3/vlrscrape/internal/store"
)

// Writer is the subset of store.Tx the Resolver needs.
type Writer interface {
	InsertTeam(ctx context.Context, t store.Team) (bool, error)
	InsertPlayer(ctx context.Context, p store.Player) (bool, error)
	InsertAgent(ctx context.Context, a store.Agent) (bool, error)
}

// Resolver resolves names through a shared Registry and makes sure each referenced entity
// row exists in the current transaction. One Resolver serves one transaction.
type Resolver struct {
	reg     *Registry
	w       Writer
	ensured map[string]struct{}
}

// NewResolver binds reg to a transaction.
func NewResolver(reg *Registry, w Writer) *Resolver {
	return &Resolver{reg: reg, w: w, ensured: make(map[string]struct{})}
}

// Registry exposes the underlying id registry.
func (r *Resolver) Registry() *Registry {
	return r.reg
}

func (r *Resolver) seen(kind, id string) bool {
	key := kind + ":" + id
	if _, ok := r.ensured[key]; ok {
		return true
	}
	r.ensured[key] = struct{}{}
	return false
}

// EnsureTeam returns the team id for name, inserting the team row if absent. Blank names
// resolve to "".
func (r *Resolver) EnsureTeam(ctx context.Context, name string) (string, error) {
	id := r.reg.TeamID(name)
	if id == "" || r.seen("team", id) {
		return id, nil
	}
	if _, err := r.w.InsertTeam(ctx, store.Team{ID: id, Name: strings.TrimSpace(name)}); err != nil {
		delete(r.ensured, "team:"+id)
		return "", fmt.Errorf("ensure team %q: %w", name, err)
	}
	return id, nil
}

// EnsurePlayer returns the player id for name on team, inserting the team first and then
// the player.
func (r *Resolver) EnsurePlayer(ctx context.Context, name, team string) (string, error) {
	teamID, err := r.EnsureTeam(ctx, team)
	if err != nil {
		return "", err
	}
	id := r.reg.PlayerID(name, team)
	if id == "" || r.seen("player", id) {
		return id, nil
	}
	p := store.Player{ID: id, Name: strings.TrimSpace(name), TeamID: store.NullString(teamID)}
	if _, err := r.w.InsertPlayer(ctx, p); err != nil {
		delete(r.ensured, "player:"+id)
		return "", fmt.Errorf("ensure player %q: %w", name, err)
	}
	return id, nil
}

// EnsureAgent returns the agent id for name, inserting the agent row if absent.
func (r *Resolver) EnsureAgent(ctx context.Context, name string) (string, error) {
	id := r.reg.AgentID(name)
	if id == "" || r.seen("agent", id) {
		return id, nil
	}
	if _, err := r.w.InsertAgent(ctx, store.Agent{ID: id, Name: strings.TrimSpace(name)}); err != nil {
		delete(r.ensured, "agent:"+id)
		return "", fmt.Errorf("ensure agent %q: %w", name, err)
	}
	return id, nil
}
