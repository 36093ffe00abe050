// Package identity turns display names scraped from match pages into stable slug ids for
// teams, players and agents.
package identity

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars  = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s\p{Zs}-]`)
	separatorRuns = regexp.MustCompile(`[\s\p{Zs}_]+`)
)

// Slugify lower-cases text, drops punctuation, joins words with single hyphens and trims
// hyphens from both ends.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = separatorRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
