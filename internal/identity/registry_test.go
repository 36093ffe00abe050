package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTeamIDAliases(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.Equal(t, "fnatic", r.TeamID("FNATIC"))
	require.Equal(t, "fnatic", r.TeamID("fnc"))
	require.Equal(t, "fnatic", r.TeamID(" Fnatic "))
	require.Equal(t, "paper-rex", r.TeamID("PRX"))
	require.Equal(t, "g2-esports", r.TeamID("G2"))
	require.Equal(t, "giantx", r.TeamID("GIANTX"))
	require.Equal(t, "sentinels", r.TeamID("Sentinels"))
	require.Equal(t, "", r.TeamID("   "))
}

func TestTeamIDFirstContainedAliasWins(t *testing.T) {
	t.Parallel()

	// "th" is a substring match, so unrelated names containing it collapse onto one team.
	r := NewRegistry()
	require.Equal(t, "team-heretics", r.TeamID("TH"))
	require.Equal(t, "team-heretics", r.TeamID("The Guard"))
}

func TestExtraAliasesAreSlugged(t *testing.T) {
	t.Parallel()

	r := NewRegistry(Alias{Short: "SEN", Canonical: "Sentinels"}, Alias{Short: "", Canonical: "x"})
	require.Equal(t, "sentinels", r.TeamID("SEN"))
	require.Equal(t, "loud", r.TeamID("LOUD"))
}

func TestPlayerIDIsTeamSuffixed(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.Equal(t, "boaster-fnatic", r.PlayerID("Boaster", "FNATIC"))
	require.Equal(t, "boaster-fnatic", r.PlayerID("Boaster", "fnc"))
	require.Equal(t, "boaster", r.PlayerID("Boaster", ""))
	require.NotEqual(t, r.PlayerID("Jinggg", "Paper Rex"), r.PlayerID("Jinggg", "Sentinels"))
	require.Equal(t, "", r.PlayerID("  ", "FNATIC"))
	require.Equal(t, "", r.PlayerID("???", "FNATIC"))
}

func TestAgentID(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.Equal(t, "kayo", r.AgentID("KAY/O"))
	require.Equal(t, "jett", r.AgentID("Jett"))
}

func TestRegistryConcurrentUseIsStable(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	names := []string{"FNATIC", "fnc", " Fnatic ", "Paper Rex", "PRX", "LOUD"}
	var wg sync.WaitGroup
	results := make([][]string, 16)
	for g := range results {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for _, n := range names {
				results[g] = append(results[g], r.TeamID(n), r.PlayerID("Derke", n))
			}
		}(g)
	}
	wg.Wait()
	for _, got := range results[1:] {
		require.Equal(t, results[0], got)
	}
	require.Equal(t, "fnatic", results[0][0])
	require.Equal(t, "derke-fnatic", results[0][1])
}
