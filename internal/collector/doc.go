// Package collector turns vlr.gg match pages into the flat per-match artifact files:
// map veto, player stats, rounds, economy and performance tables.
package collector
