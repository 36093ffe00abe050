package store

// Tables lists every table in dependency order.
var Tables = []string{
	"events",
	"teams",
	"players",
	"agents",
	"matches",
	"maps",
	"rounds",
	"map_veto",
	"player_map_stats",
	"round_economy",
	"player_vs_player_kills",
}

// SchemaStatements create the dataset. The DDL is valid on PostgreSQL and SQLite.
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	event_name TEXT NOT NULL UNIQUE,
	season_year INTEGER,
	source TEXT NOT NULL DEFAULT 'vlr.gg'
)`,
	`CREATE TABLE IF NOT EXISTS teams (
	team_id TEXT PRIMARY KEY,
	team_name TEXT NOT NULL,
	region TEXT
)`,
	`CREATE TABLE IF NOT EXISTS players (
	player_id TEXT PRIMARY KEY,
	player_name TEXT NOT NULL,
	current_team_id TEXT REFERENCES teams(team_id)
)`,
	`CREATE TABLE IF NOT EXISTS agents (
	agent_id TEXT PRIMARY KEY,
	agent_name TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS matches (
	match_id TEXT PRIMARY KEY,
	event_id TEXT NOT NULL REFERENCES events(event_id),
	match_name TEXT,
	stage TEXT,
	team_a_id TEXT REFERENCES teams(team_id),
	team_b_id TEXT REFERENCES teams(team_id),
	source_url TEXT
)`,
	`CREATE TABLE IF NOT EXISTS maps (
	map_id TEXT PRIMARY KEY,
	match_id TEXT NOT NULL REFERENCES matches(match_id),
	map_number INTEGER NOT NULL,
	map_name TEXT NOT NULL,
	UNIQUE (match_id, map_number)
)`,
	`CREATE TABLE IF NOT EXISTS rounds (
	round_id TEXT PRIMARY KEY,
	map_id TEXT NOT NULL REFERENCES maps(map_id),
	round_number INTEGER NOT NULL,
	score TEXT NOT NULL,
	winning_team_id TEXT REFERENCES teams(team_id),
	winning_side TEXT,
	win_method TEXT,
	phase TEXT NOT NULL,
	UNIQUE (map_id, round_number)
)`,
	`CREATE TABLE IF NOT EXISTS map_veto (
	veto_id TEXT PRIMARY KEY,
	match_id TEXT NOT NULL REFERENCES matches(match_id),
	order_no INTEGER NOT NULL,
	team_id TEXT REFERENCES teams(team_id),
	action_type TEXT NOT NULL CHECK (action_type IN ('pick', 'ban', 'decider')),
	map_name TEXT NOT NULL,
	UNIQUE (match_id, order_no)
)`,
	`CREATE TABLE IF NOT EXISTS player_map_stats (
	pms_id TEXT PRIMARY KEY,
	map_id TEXT NOT NULL REFERENCES maps(map_id),
	player_id TEXT NOT NULL REFERENCES players(player_id),
	team_id TEXT REFERENCES teams(team_id),
	agent_id TEXT REFERENCES agents(agent_id),
	acs DOUBLE PRECISION,
	kills INTEGER,
	deaths INTEGER,
	assists INTEGER,
	adr DOUBLE PRECISION,
	kast DOUBLE PRECISION,
	hs_pct DOUBLE PRECISION,
	rating DOUBLE PRECISION,
	fk INTEGER,
	fd INTEGER,
	UNIQUE (map_id, player_id)
)`,
	`CREATE TABLE IF NOT EXISTS round_economy (
	econ_id TEXT PRIMARY KEY,
	map_id TEXT NOT NULL REFERENCES maps(map_id),
	round_number INTEGER NOT NULL,
	team_id TEXT NOT NULL REFERENCES teams(team_id),
	credits INTEGER NOT NULL,
	buy_tier TEXT NOT NULL CHECK (buy_tier IN ('eco', 'semi', 'full')),
	UNIQUE (map_id, round_number, team_id)
)`,
	`CREATE TABLE IF NOT EXISTS player_vs_player_kills (
	pvpk_id TEXT PRIMARY KEY,
	map_id TEXT NOT NULL REFERENCES maps(map_id),
	killer_player_id TEXT NOT NULL REFERENCES players(player_id),
	victim_player_id TEXT NOT NULL REFERENCES players(player_id),
	killer_team_id TEXT REFERENCES teams(team_id),
	victim_team_id TEXT REFERENCES teams(team_id),
	kills_count INTEGER NOT NULL CHECK (kills_count > 0),
	CHECK (killer_player_id <> victim_player_id),
	UNIQUE (map_id, killer_player_id, victim_player_id)
)`,
}

// Insert statements use ? placeholders; backends rebind them to their native style.
const (
	insertEvent = `INSERT INTO events (event_id, event_name, season_year, source)
VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`
	insertTeam = `INSERT INTO teams (team_id, team_name, region)
VALUES (?, ?, ?) ON CONFLICT DO NOTHING`
	insertPlayer = `INSERT INTO players (player_id, player_name, current_team_id)
VALUES (?, ?, ?) ON CONFLICT DO NOTHING`
	insertAgent = `INSERT INTO agents (agent_id, agent_name)
VALUES (?, ?) ON CONFLICT DO NOTHING`
	insertMatch = `INSERT INTO matches (match_id, event_id, match_name, stage, team_a_id, team_b_id, source_url)
VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	insertMap = `INSERT INTO maps (map_id, match_id, map_number, map_name)
VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`
	insertRound = `INSERT INTO rounds (round_id, map_id, round_number, score, winning_team_id, winning_side, win_method, phase)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	insertVeto = `INSERT INTO map_veto (veto_id, match_id, order_no, team_id, action_type, map_name)
VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	insertPlayerMapStat = `INSERT INTO player_map_stats
(pms_id, map_id, player_id, team_id, agent_id, acs, kills, deaths, assists, adr, kast, hs_pct, rating, fk, fd)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	insertRoundEconomy = `INSERT INTO round_economy (econ_id, map_id, round_number, team_id, credits, buy_tier)
VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	insertKill = `INSERT INTO player_vs_player_kills
(pvpk_id, map_id, killer_player_id, victim_player_id, killer_team_id, victim_team_id, kills_count)
VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
)
