package analysis

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// englishPrinter formats score labels with English grouping separators
// ("1 per 10,000 residents").
var englishPrinter = message.NewPrinter(language.English)

const (
	// incomeCap bounds the income factor so very wealthy areas top out at 2x.
	incomeCap = 2.0
	// incomeWeight is how much of the income factor feeds the value (up to
	// a 60% boost at the cap).
	incomeWeight = 0.3

	// zeroCompetitorMultiplier and zeroCompetitorCap define the sentinel
	// value for markets with population but no competitors.
	zeroCompetitorMultiplier = 10
	zeroCompetitorCap        = 100000
)

// ScoreResult pairs the human-readable opportunity label with its sortable
// numeric value.
type ScoreResult struct {
	Label string
	Value int
}

// Score derives the opportunity score from population, median income, and
// competitor count. Total: every input combination, including all zeros,
// produces a result.
//
// With competitors present, the base is residents per competitor, boosted by
// up to 60% for high-income areas. With population but no competitors the
// value is the sentinel min(population*10, 100000), so bigger empty markets
// still sort higher. Anything else is unscorable.
func Score(population, medianIncome, competitorCount int) ScoreResult {
	switch {
	case competitorCount > 0 && population > 0:
		ratio := int(math.Round(float64(population) / float64(competitorCount)))
		incomeFactor := math.Min(float64(medianIncome)/100000, incomeCap)
		value := int(math.Round(float64(ratio) * (1 + incomeFactor*incomeWeight)))
		return ScoreResult{
			Label: englishPrinter.Sprintf("1 per %d residents", ratio),
			Value: value,
		}

	case population > 0:
		value := population * zeroCompetitorMultiplier
		if value > zeroCompetitorCap {
			value = zeroCompetitorCap
		}
		return ScoreResult{Label: "No competitors found", Value: value}

	default:
		return ScoreResult{Label: "N/A", Value: 0}
	}
}

// MilesToMeters converts a radius in miles to whole meters.
func MilesToMeters(miles float64) int {
	return int(math.Round(miles * 1609.34))
}
