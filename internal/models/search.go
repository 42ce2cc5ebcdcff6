package models

import "time"

// SalaryRange is the pay expectation of a search, always on a yearly basis.
// Max of zero means the range is open ended.
type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ScoringWeights holds the relative weight of each scoring factor, each in [0,1].
type ScoringWeights struct {
	Location       float64 `json:"location"`
	TitleRelevance float64 `json:"titleRelevance"`
	Salary         float64 `json:"salary"`
	SourceQuality  float64 `json:"sourceQuality"`
}

// Sum returns the combined weight of all factors.
func (w ScoringWeights) Sum() float64 {
	return w.Location + w.TitleRelevance + w.Salary + w.SourceQuality
}

// SearchCriteria is a validated search request. It is not modified after validation.
type SearchCriteria struct {
	Query              string          `json:"query"`
	Location           string          `json:"location,omitempty"`
	PreferredLocations []string        `json:"preferredLocations,omitempty"`
	Sources            []Source        `json:"sources,omitempty"`
	Salary             *SalaryRange    `json:"salary,omitempty"`
	JobTypes           []string        `json:"jobTypes,omitempty"`
	Keywords           []string        `json:"keywords,omitempty"`
	ScoringWeights     *ScoringWeights `json:"scoringWeights,omitempty"`
	MaxResults         int             `json:"maxResults"`
	Timeout            time.Duration   `json:"-"`
}

// TimeoutMs reports the effective deadline in milliseconds.
func (c SearchCriteria) TimeoutMs() int64 {
	return c.Timeout.Milliseconds()
}

// ScrapeConfig is what each scraper receives for one request.
type ScrapeConfig struct {
	SearchQuery string
	Location    string
	MaxResults  int
	JobType     string
}
