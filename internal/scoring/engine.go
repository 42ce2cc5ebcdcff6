package scoring

import (
	"sort"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
)

// MaxTopReasons bounds EnhancedScoreBreakdown.TopReasons.
const MaxTopReasons = 5

// DefaultWeights is used when criteria carry no scoring weights.
var DefaultWeights = models.ScoringWeights{
	Location:       0.25,
	TitleRelevance: 0.35,
	Salary:         0.25,
	SourceQuality:  0.15,
}

// Engine combines the four strategies into a total score and ranking.
type Engine struct {
	weights models.ScoringWeights
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the default weights.
func WithWeights(weights models.ScoringWeights) Option {
	return func(e *Engine) {
		e.weights = weights
	}
}

// WithClock sets the reference clock used for posting recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an Engine with default weights and the wall clock.
func NewEngine(opts ...Option) *Engine {
	engine := &Engine{weights: DefaultWeights, now: time.Now}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// EffectiveWeights resolves the weights for criteria: criteria weights win over
// engine defaults, and a combined weight above 1 is scaled back to 1.
func (e *Engine) EffectiveWeights(criteria models.SearchCriteria) models.ScoringWeights {
	weights := e.weights
	if criteria.ScoringWeights != nil {
		weights = *criteria.ScoringWeights
	}
	weights.Location = clamp(weights.Location, 0, 1)
	weights.TitleRelevance = clamp(weights.TitleRelevance, 0, 1)
	weights.Salary = clamp(weights.Salary, 0, 1)
	weights.SourceQuality = clamp(weights.SourceQuality, 0, 1)
	if sum := weights.Sum(); sum > 1 {
		weights.Location /= sum
		weights.TitleRelevance /= sum
		weights.Salary /= sum
		weights.SourceQuality /= sum
	}
	return weights
}

func weightFor(weights models.ScoringWeights, factor Factor) float64 {
	switch factor {
	case FactorLocation:
		return weights.Location
	case FactorTitleRelevance:
		return weights.TitleRelevance
	case FactorSalary:
		return weights.Salary
	default:
		return weights.SourceQuality
	}
}

// ScoreJob scores a single job at the engine's current time.
func (e *Engine) ScoreJob(job models.RawJob, criteria models.SearchCriteria) models.ScoredJob {
	return e.scoreAt(job, criteria, e.EffectiveWeights(criteria), e.now())
}

// ScoreJobs scores every job and ranks them by descending total. Equal totals
// keep their input order. An empty input yields an empty, non-nil slice.
func (e *Engine) ScoreJobs(jobs []models.RawJob, criteria models.SearchCriteria) []models.ScoredJob {
	scored := make([]models.ScoredJob, 0, len(jobs))
	if len(jobs) == 0 {
		return scored
	}
	weights := e.EffectiveWeights(criteria)
	now := e.now()
	for _, job := range jobs {
		scored = append(scored, e.scoreAt(job, criteria, weights, now))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

type reasonCandidate struct {
	text     string
	priority float64
}

func (e *Engine) scoreAt(job models.RawJob, criteria models.SearchCriteria, weights models.ScoringWeights, now time.Time) models.ScoredJob {
	details := make(map[Factor]models.FactorDetail, len(strategies))
	var (
		total           float64
		confidenceSum   float64
		weightSum       float64
		plainConfidence float64
		candidates      []reasonCandidate
	)

	for _, strategy := range strategies {
		r := strategy.score(job, criteria, now)
		weight := weightFor(weights, strategy.factor)
		r.Weight = weight
		r.Weighted = r.Score * weight
		if weight == 0 {
			r.Weighted = 0
		}
		total += r.Weighted
		confidenceSum += r.Confidence * weight
		weightSum += weight
		plainConfidence += r.Confidence

		for _, reason := range r.Reasons {
			candidates = append(candidates, reasonCandidate{text: reason, priority: r.Confidence * weight})
		}
		details[strategy.factor] = models.FactorDetail{
			FactorScore: models.FactorScore{Score: r.Score, Weight: r.Weight, Weighted: r.Weighted},
			Confidence:  r.Confidence,
			Reasons:     r.Reasons,
		}
	}

	overall := plainConfidence / float64(len(strategies))
	if weightSum > 0 {
		overall = confidenceSum / weightSum
	}
	total = clamp(total, 0, 100)

	enhanced := models.EnhancedScoreBreakdown{
		Location:          details[FactorLocation],
		TitleRelevance:    details[FactorTitleRelevance],
		Salary:            details[FactorSalary],
		SourceQuality:     details[FactorSourceQuality],
		OverallConfidence: round2(overall),
		TopReasons:        topReasons(candidates),
	}

	metadata := make(map[string]any, len(job.Metadata)+1)
	for key, value := range job.Metadata {
		metadata[key] = value
	}
	metadata[models.MetaEnhancedBreakdown] = enhanced
	job.Metadata = metadata

	return models.ScoredJob{
		RawJob: job,
		Score:  total,
		ScoreBreakdown: models.ScoreBreakdown{
			Location:       enhanced.Location.FactorScore,
			TitleRelevance: enhanced.TitleRelevance.FactorScore,
			Salary:         enhanced.Salary.FactorScore,
			SourceQuality:  enhanced.SourceQuality.FactorScore,
			Total:          total,
		},
	}
}

// topReasons keeps the highest confidence x weight reasons, deduplicated.
// Reasons with equal priority keep strategy order.
func topReasons(candidates []reasonCandidate) []string {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})
	out := make([]string, 0, MaxTopReasons)
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if len(out) == MaxTopReasons {
			break
		}
		if _, dup := seen[candidate.text]; dup {
			continue
		}
		seen[candidate.text] = struct{}{}
		out = append(out, candidate.text)
	}
	return out
}
