package rounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		round int
		want  string
	}{
		{0, ""},
		{1, FirstHalf},
		{12, FirstHalf},
		{13, SecondHalf},
		{24, SecondHalf},
		{25, Overtime},
		{31, Overtime},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PhaseOf(tc.round), "round %d", tc.round)
	}
}
