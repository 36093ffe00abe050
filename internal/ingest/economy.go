package ingest

import (
	"strconv"
	"strings"
)

// Buy tiers.
const (
	TierEco  = "eco"
	TierSemi = "semi"
	TierFull = "full"
)

// ParseCredits reads a bank figure such as "8.5k" or "3900". Blank, unparsable and
// loss-bonus ("$") values are unknown and return nil.
func ParseCredits(s string) *int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || strings.Contains(s, "$") {
		return nil
	}
	scale := 1.0
	if strings.Contains(s, "k") {
		scale = 1000
		s = strings.ReplaceAll(s, "k", "")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	// Nudge past float error so "1.15k" truncates to 1150, not 1149.
	v := int(f*scale + 1e-6)
	return &v
}

// BuyTier classifies a bank: below 3000 is eco, below 5000 semi, anything else full.
func BuyTier(credits *int) string {
	switch {
	case credits == nil:
		return ""
	case *credits < 3000:
		return TierEco
	case *credits < 5000:
		return TierSemi
	default:
		return TierFull
	}
}
