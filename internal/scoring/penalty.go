package scoring

import (
	"math"
	"strings"
)

// WordCountPenalty computes the deduction for a writing answer that falls
// short of the task's expected minimum word count. Answers at or above 70%
// of the minimum are not penalized; below that, the penalty is
// max(1, round(shortfall/10)) where shortfall is measured against the 70%
// threshold. Callers floor the adjusted total at the rubric minimum.
func WordCountPenalty(answer string, minWords int) int {
	if minWords <= 0 {
		return 0
	}

	threshold := int(math.Ceil(0.7 * float64(minWords)))
	words := CountWords(answer)
	if words >= threshold {
		return 0
	}

	shortfall := threshold - words
	penalty := int(math.Round(float64(shortfall) / 10))
	if penalty < 1 {
		penalty = 1
	}
	return penalty
}

// CountWords counts whitespace-separated words in the answer.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
