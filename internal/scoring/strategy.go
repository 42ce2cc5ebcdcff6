// Package scoring ranks job postings against search criteria using four
// rule-based factors. Every function in this package is pure: the only time
// input is the reference clock captured by the Engine.
package scoring

import (
	"math"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
)

// Factor names a scoring dimension.
type Factor string

const (
	FactorLocation       Factor = "location"
	FactorTitleRelevance Factor = "titleRelevance"
	FactorSalary         Factor = "salary"
	FactorSourceQuality  Factor = "sourceQuality"
)

// Result is the output of one strategy for one job.
type Result struct {
	Score      float64
	Weight     float64
	Weighted   float64
	Confidence float64
	Reasons    []string
}

// Strategy scores a single factor. now is the reference time of the scoring run.
type Strategy func(job models.RawJob, criteria models.SearchCriteria, now time.Time) Result

// namedStrategy pairs a factor with its scoring function.
type namedStrategy struct {
	factor Factor
	score  Strategy
}

// strategies is the fixed, ordered set of scorers. The order is also the
// tie-break order when selecting top reasons.
var strategies = []namedStrategy{
	{FactorLocation, ScoreLocation},
	{FactorTitleRelevance, ScoreTitleRelevance},
	{FactorSalary, ScoreSalary},
	{FactorSourceQuality, ScoreSourceQuality},
}

func result(score, confidence float64, reasons ...string) Result {
	return Result{
		Score:      round2(clamp(score, 0, 100)),
		Confidence: round2(clamp(confidence, 0, 1)),
		Reasons:    reasons,
	}
}

func clamp(value, low, high float64) float64 {
	if math.IsNaN(value) {
		return low
	}
	return math.Max(low, math.Min(high, value))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
