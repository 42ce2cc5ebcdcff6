package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
)

const (
	qualityFloor            = 40
	detailedDescriptionSize = 200
	day                     = 24 * time.Hour
)

var sourceBaseScores = map[models.Source]float64{
	models.SourceLinkedIn:     90,
	models.SourceGlassdoor:    84,
	models.SourceIndeed:       82,
	models.SourceStepstone:    80,
	models.SourceZipRecruiter: 78,
	models.SourceAdzuna:       75,
}

const unknownSourceBase = 70

// SourceBaseScore returns the reputation score of a source before bonuses.
func SourceBaseScore(source models.Source) float64 {
	if base, ok := sourceBaseScores[source]; ok {
		return base
	}
	return unknownSourceBase
}

// ScoreSourceQuality rates how trustworthy and complete the posting is.
func ScoreSourceQuality(job models.RawJob, _ models.SearchCriteria, now time.Time) Result {
	score := SourceBaseScore(job.Source)
	reasons := []string{fmt.Sprintf("Listed on %s", job.Source)}
	signals := 0

	if !job.Salary.IsZero() {
		score += 5
		signals++
		reasons = append(reasons, "Includes salary information")
	}
	if len(strings.TrimSpace(job.Description)) >= detailedDescriptionSize {
		score += 5
		signals++
		reasons = append(reasons, "Detailed job description")
	}
	if company := strings.TrimSpace(job.Company); company != "" && company != models.UnknownCompany {
		signals++
	} else {
		score -= 5
		reasons = append(reasons, "Missing company name")
	}
	if job.PostedDateKnown() {
		signals++
		age := now.Sub(job.PostedDate)
		switch {
		case age <= 7*day:
			score += 5
			reasons = append(reasons, "Recently posted")
		case age >= 90*day:
			score -= 20
			reasons = append(reasons, "Job posting is old")
		case age >= 60*day:
			score -= 10
			reasons = append(reasons, "Job posting is old")
		}
	}

	return result(clamp(score, qualityFloor, 100), 0.4+0.15*float64(signals), reasons...)
}
