package models

import "encoding/json"

// FactorScore is one factor's contribution to a job's total.
type FactorScore struct {
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// ScoreBreakdown is the per-factor decomposition of a total score.
type ScoreBreakdown struct {
	Location       FactorScore `json:"location"`
	TitleRelevance FactorScore `json:"titleRelevance"`
	Salary         FactorScore `json:"salary"`
	SourceQuality  FactorScore `json:"sourceQuality"`
	Total          float64     `json:"total"`
}

// FactorDetail extends FactorScore with the explanation for it.
type FactorDetail struct {
	FactorScore
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// EnhancedScoreBreakdown carries confidences and reasons for each factor.
type EnhancedScoreBreakdown struct {
	Location          FactorDetail `json:"location"`
	TitleRelevance    FactorDetail `json:"titleRelevance"`
	Salary            FactorDetail `json:"salary"`
	SourceQuality     FactorDetail `json:"sourceQuality"`
	OverallConfidence float64      `json:"overallConfidence"`
	TopReasons        []string     `json:"topReasons"`
}

// MetaEnhancedBreakdown is the metadata key holding the EnhancedScoreBreakdown.
const MetaEnhancedBreakdown = "enhancedScoreBreakdown"

// ScoredJob is a RawJob annotated with its score, breakdown and rank.
type ScoredJob struct {
	RawJob
	Score          float64        `json:"score"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
	Rank           int            `json:"rank"`
}

// Enhanced returns the enhanced breakdown stored in the job metadata. Jobs
// read back from JSON hold it as a generic map, which is decoded again.
func (j ScoredJob) Enhanced() (EnhancedScoreBreakdown, bool) {
	switch value := j.Metadata[MetaEnhancedBreakdown].(type) {
	case EnhancedScoreBreakdown:
		return value, true
	case *EnhancedScoreBreakdown:
		if value == nil {
			return EnhancedScoreBreakdown{}, false
		}
		return *value, true
	case map[string]any:
		raw, err := json.Marshal(value)
		if err != nil {
			return EnhancedScoreBreakdown{}, false
		}
		var decoded EnhancedScoreBreakdown
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return EnhancedScoreBreakdown{}, false
		}
		return decoded, true
	default:
		return EnhancedScoreBreakdown{}, false
	}
}
