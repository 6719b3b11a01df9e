package extract

import (
	"math"
	"math/rand"
)

// ScoreSuggester proposes a max-score suggestion for a complexity
// level. The suggestion is a placeholder default for educators, not a
// grading signal: callers may substitute a fixed constant.
type ScoreSuggester func(complexity string) float64

// RandomScoreSuggester draws a score from a complexity-banded range,
// rounded to one decimal, bounded to (20, 100].
func RandomScoreSuggester(rng *rand.Rand) ScoreSuggester {
	return func(complexity string) float64 {
		var min, max float64
		switch complexity {
		case ComplexityHigh:
			min, max = 75, 100
		case ComplexityMedium:
			min, max = 50, 85
		case ComplexityLow:
			min, max = 30, 70
		default:
			min, max = 40, 80
		}

		if min < 20.1 {
			min = 20.1
		}

		score := rng.Float64()*(max-min) + min
		score = math.Round(score*10) / 10

		if score < 20.1 {
			return 20.1
		}
		if score > 100 {
			return 100
		}
		return score
	}
}

// FixedScoreSuggester always suggests the same score. Useful for tests
// and for deployments that do not want randomized suggestions.
func FixedScoreSuggester(score float64) ScoreSuggester {
	return func(string) float64 { return score }
}
