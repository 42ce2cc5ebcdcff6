package scoring

import (
	"math"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
)

// ScoreSalary compares the job's yearly-normalized pay range with the expected range.
func ScoreSalary(job models.RawJob, criteria models.SearchCriteria, _ time.Time) Result {
	if criteria.Salary == nil || (criteria.Salary.Min <= 0 && criteria.Salary.Max <= 0) {
		return result(50, 0.5, "No salary preference specified")
	}
	if job.Salary.IsZero() {
		return result(50, 0.3, "No salary information")
	}

	jobMin, jobMax := job.Salary.Yearly()
	wantMin, wantMax := criteria.Salary.Min, criteria.Salary.Max
	if wantMax <= 0 {
		wantMax = math.Inf(1)
	}

	widthPenalty := 0.07 * (relativeWidth(jobMin, jobMax) + relativeWidth(wantMin, wantMax)) / 2

	switch {
	case jobMin >= wantMin && jobMax <= wantMax:
		return result(100, 0.98-widthPenalty, "Perfect salary alignment")
	case jobMin > wantMax:
		above := (jobMin - wantMax) / wantMax
		return result(85+math.Min(10, 10*above), 0.92-widthPenalty, "Above expected salary")
	case jobMax < wantMin:
		gap := (wantMin - jobMax) / wantMin
		return result(math.Max(5, 65*(1-gap)), 0.92-widthPenalty, "Below expected salary")
	}

	overlap := math.Min(jobMax, wantMax) - math.Max(jobMin, wantMin)
	fraction := 1.0
	if jobMax > jobMin {
		fraction = overlap / (jobMax - jobMin)
	}
	score := clamp(61+38*fraction, 61, 99)
	return result(score, 0.8-2*widthPenalty, "Partial salary overlap")
}

// relativeWidth is 0 for a point value and approaches 1 as the range widens.
func relativeWidth(low, high float64) float64 {
	if math.IsInf(high, 1) {
		return 1
	}
	if high <= 0 || high <= low {
		return 0
	}
	return clamp((high-low)/high, 0, 1)
}
