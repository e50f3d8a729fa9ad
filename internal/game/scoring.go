package game

import "time"

// Reward buckets. The faster a clue falls, the more coins it pays; the
// cutoffs are inclusive at their upper bound.
const (
	fastSolve   = 5 * time.Minute
	mediumSolve = 10 * time.Minute

	fastReward   = 30
	mediumReward = 20
	slowReward   = 10
)

// SkipPenalty is the flat coin cost of skipping a clue, independent of
// elapsed time or position in the sequence.
const SkipPenalty = 20

// Award returns the coin reward for solving the active clue after the
// given elapsed time. Negative elapsed time (clock skew between clients)
// is treated as zero rather than leaking an out-of-range bucket.
func Award(elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed <= fastSolve:
		return fastReward
	case elapsed <= mediumSolve:
		return mediumReward
	default:
		return slowReward
	}
}
