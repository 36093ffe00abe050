package store

// Describe returns a natural-language description of the dataset for query-writing
// consumers.
func Describe() string {
	return schemaDescription
}

const schemaDescription = `# VCT match database

Match data scraped from vlr.gg: events, teams, players, agents, matches, maps, rounds,
map vetoes, per-map player statistics, round economy and player-vs-player kill counts.
Only single SELECT statements are accepted.

## events
- event_id (TEXT, PK): slug of the event name
- event_name (TEXT, unique): full event name
- season_year (INTEGER): season year
- source (TEXT): data source, 'vlr.gg'

## teams
- team_id (TEXT, PK): canonical team slug; short tags such as 'fnc' resolve to 'fnatic'
- team_name (TEXT): name as first seen in the data
- region (TEXT, nullable)

## players
- player_id (TEXT, PK): player slug suffixed with the team id, e.g. 'boaster-fnatic'
- player_name (TEXT): in-game name
- current_team_id (TEXT, FK teams)

## agents
- agent_id (TEXT, PK): agent slug, e.g. 'jett'
- agent_name (TEXT)

## matches
- match_id (TEXT, PK): slug of the source folder name
- event_id (TEXT, FK events)
- match_name (TEXT): "Team A vs Team B"
- stage (TEXT): stage detail, e.g. 'Playoffs Grand Final', or 'Unknown'
- team_a_id, team_b_id (TEXT, FK teams)
- source_url (TEXT, nullable): vlr.gg match page

## maps
- map_id (TEXT, PK): '<match_id>_m<number>'
- match_id (TEXT, FK matches)
- map_number (INTEGER): 1-based position in the series; (match_id, map_number) is unique
- map_name (TEXT): e.g. 'Ascent', 'Lotus'

## rounds
- round_id (TEXT, PK): '<map_id>_r<number>'
- map_id (TEXT, FK maps)
- round_number (INTEGER): 1..24 in regulation, 25+ in overtime
- score (TEXT): running score after the round, e.g. '5-3'
- winning_team_id (TEXT, FK teams)
- winning_side (TEXT): 'Attackers' or 'Defenders'
- win_method (TEXT, nullable): 'Elimination', 'Spike Detonation', 'Defuse', 'Time Expired'
- phase (TEXT): 'first_half' (1-12), 'second_half' (13-24), 'overtime' (25+)

## map_veto
- veto_id (TEXT, PK)
- match_id (TEXT, FK matches)
- order_no (INTEGER): position in the veto sequence, strictly increasing per match
- team_id (TEXT, FK teams, NULL for the decider)
- action_type (TEXT): 'pick', 'ban' or 'decider'
- map_name (TEXT)

## player_map_stats
One row per (map, player), combined attack and defense.
- pms_id (TEXT, PK)
- map_id (TEXT, FK maps), player_id (TEXT, FK players), team_id (TEXT, FK teams), agent_id (TEXT, FK agents)
- acs (REAL): average combat score
- kills, deaths, assists (INTEGER)
- adr (REAL): average damage per round
- kast (REAL): 0-100 scale, e.g. 75 means 75%
- hs_pct (REAL): headshot percentage, 0-100 scale
- rating (REAL): rating 2.0
- fk, fd (INTEGER): first kills, first deaths

## round_economy
- econ_id (TEXT, PK)
- map_id (TEXT, FK maps), round_number (INTEGER), team_id (TEXT, FK teams)
- credits (INTEGER): team bank
- buy_tier (TEXT): 'eco' (<3000), 'semi' (3000-4999), 'full' (5000+)

## player_vs_player_kills
Directed kill counts on one map; only positive counts are stored.
- pvpk_id (TEXT, PK)
- map_id (TEXT, FK maps)
- killer_player_id, victim_player_id (TEXT, FK players)
- killer_team_id, victim_team_id (TEXT, FK teams)
- kills_count (INTEGER, > 0)

## Query patterns
- Top players by ACS: SELECT p.player_name, AVG(s.acs) FROM player_map_stats s
  JOIN players p ON p.player_id = s.player_id GROUP BY p.player_name ORDER BY 2 DESC
- Team map win rate: count rounds or maps grouped by winning_team_id
- Head-to-head: filter player_vs_player_kills by killer_player_id and victim_player_id
- Veto tendencies: map_veto grouped by team_id and action_type
- Economy impact: join round_economy with rounds on (map_id, round_number)
`
