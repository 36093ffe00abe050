package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestParseCredits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want *int
	}{
		{"8.5k", intp(8500)},
		{"0.3k", intp(300)},
		{"1.15k", intp(1150)},
		{"12.1K", intp(12100)},
		{"3900", intp(3900)},
		{"450.7", intp(450)},
		{" 0 ", intp(0)},
		{"", nil},
		{"   ", nil},
		{"$$$", nil},
		{"$", nil},
		{"1.2k$", nil},
		{"abc", nil},
		{"k", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCredits(tt.in), "ParseCredits(%q)", tt.in)
	}
}

func TestBuyTier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", BuyTier(nil))
	assert.Equal(t, TierEco, BuyTier(intp(0)))
	assert.Equal(t, TierEco, BuyTier(intp(2999)))
	assert.Equal(t, TierSemi, BuyTier(intp(3000)))
	assert.Equal(t, TierSemi, BuyTier(intp(4999)))
	assert.Equal(t, TierFull, BuyTier(intp(5000)))
	assert.Equal(t, TierFull, BuyTier(intp(12100)))
}
