package exam

// CEFR ladder used for level-relative band labels.
var cefrLadder = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// Band is the coarse proficiency band derived from a percentage score.
type Band string

const (
	BandBelowEntry        Band = "below-entry"
	BandLowerIntermediate Band = "lower-intermediate"
	BandUpperIntermediate Band = "upper-intermediate"
	BandAdvanced          Band = "advanced"
)

// BandForPercentage maps a percentage score to its band. The thresholds are
// fixed for compatibility with historical score records.
func BandForPercentage(pct int) Band {
	switch {
	case pct < 41:
		return BandBelowEntry
	case pct <= 60:
		return BandLowerIntermediate
	case pct <= 80:
		return BandUpperIntermediate
	default:
		return BandAdvanced
	}
}

// LevelForPercentage renders a band as a CEFR-style label relative to the
// session's target level: below-entry maps to the previous ladder level,
// the middle bands to sub-levels of the target, and advanced to the next
// ladder level.
func LevelForPercentage(pct int, level string) string {
	switch BandForPercentage(pct) {
	case BandBelowEntry:
		return previousLevel(level)
	case BandLowerIntermediate:
		return level + ".1"
	case BandUpperIntermediate:
		return level + ".2"
	default:
		return nextLevel(level)
	}
}

func previousLevel(level string) string {
	for i, l := range cefrLadder {
		if l == level {
			if i == 0 {
				return "pre-A1"
			}
			return cefrLadder[i-1]
		}
	}
	return "pre-" + level
}

func nextLevel(level string) string {
	for i, l := range cefrLadder {
		if l == level {
			if i == len(cefrLadder)-1 {
				return "C2+"
			}
			return cefrLadder[i+1]
		}
	}
	return level + "+"
}
