package models

import "time"

// ScraperError describes one failure captured while scraping a source.
type ScraperError struct {
	Source    Source         `json:"source"`
	Message   string         `json:"message"`
	Code      string         `json:"code,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// ScraperResult is the outcome of one scrape of one source.
type ScraperResult struct {
	Source       Source         `json:"source"`
	Jobs         []RawJob       `json:"jobs"`
	ScrapedCount int            `json:"scrapedCount"`
	SuccessCount int            `json:"successCount"`
	FailedCount  int            `json:"failedCount"`
	Errors       []ScraperError `json:"errors"`
	ScrapedAt    time.Time      `json:"scrapedAt"`
	DurationMs   int64          `json:"durationMs"`
}

// Failed reports whether the source produced no jobs and at least one error.
func (r ScraperResult) Failed() bool {
	return len(r.Jobs) == 0 && len(r.Errors) > 0
}
