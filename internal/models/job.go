package models

import "time"

// SalaryPeriod is the pay interval a salary figure refers to.
type SalaryPeriod string

const (
	PeriodHourly  SalaryPeriod = "hourly"
	PeriodMonthly SalaryPeriod = "monthly"
	PeriodYearly  SalaryPeriod = "yearly"
)

// HoursPerYear converts hourly pay to a yearly figure.
const HoursPerYear = 2080

// Salary is a pay range as published by a source.
type Salary struct {
	Min      float64      `json:"min"`
	Max      float64      `json:"max"`
	Currency string       `json:"currency,omitempty"`
	Period   SalaryPeriod `json:"period"`
}

// Yearly returns the range normalized to a yearly basis.
func (s Salary) Yearly() (float64, float64) {
	factor := 1.0
	switch s.Period {
	case PeriodHourly:
		factor = HoursPerYear
	case PeriodMonthly:
		factor = 12
	}
	low, high := s.Min, s.Max
	if low <= 0 {
		low = high
	}
	if high <= 0 {
		high = low
	}
	if low > high {
		low, high = high, low
	}
	return low * factor, high * factor
}

// IsZero reports whether the salary carries no usable figure.
func (s *Salary) IsZero() bool {
	return s == nil || (s.Min <= 0 && s.Max <= 0)
}

// RawJob is the normalized, unscored posting returned by scrapers.
// Values are treated as immutable once a scraper has produced them.
type RawJob struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Company     string         `json:"company"`
	Location    string         `json:"location"`
	Salary      *Salary        `json:"salary,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url"`
	Source      Source         `json:"source"`
	JobType     string         `json:"jobType,omitempty"`
	PostedDate  time.Time      `json:"postedDate"`
	ScrapedAt   time.Time      `json:"scrapedAt"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Metadata keys written by scrapers.
// Placeholders for listings that omit a company or location.
const (
	UnknownCompany  = "Unknown company"
	UnknownLocation = "Not specified"
)

const (
	MetaPostedRaw           = "postedRaw"
	MetaPostedDateEstimated = "postedDateEstimated"
	MetaRemote              = "remote"
)

// PostedDateKnown reports whether the source published the posting date.
func (j RawJob) PostedDateKnown() bool {
	if j.PostedDate.IsZero() {
		return false
	}
	estimated, _ := j.Metadata[MetaPostedDateEstimated].(bool)
	return !estimated
}
