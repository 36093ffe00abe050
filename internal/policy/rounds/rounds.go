// Package rounds holds the round numbering policy: regulation halves of twelve rounds and
// overtime from round 25.
package rounds

// Phases of a map.
const (
	FirstHalf  = "first_half"
	SecondHalf = "second_half"
	Overtime   = "overtime"
)

const (
	// HalfLength is the number of rounds before sides swap.
	HalfLength = 12
	// OvertimeStart is the first overtime round.
	OvertimeStart = 2*HalfLength + 1
)

// PhaseOf returns the phase that round n belongs to, or "" for n < 1.
func PhaseOf(n int) string {
	switch {
	case n < 1:
		return ""
	case n <= HalfLength:
		return FirstHalf
	case n < OvertimeStart:
		return SecondHalf
	default:
		return Overtime
	}
}
