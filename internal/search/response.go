package search

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
)

// Source states reported in the response metadata.
const (
	SourceOK       = "ok"
	SourcePartial  = "partial"
	SourceFailed   = "failed"
	SourceTimedOut = "timeout"
)

// Error codes of failed searches.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeAllSourcesFailed = "ALL_SOURCES_FAILED"
	CodeSearchTimeout    = "SEARCH_TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// SourceReport summarizes how one source fared.
type SourceReport struct {
	Source     models.Source         `json:"source"`
	Status     string                `json:"status"`
	Jobs       int                   `json:"jobs"`
	DurationMs int64                 `json:"durationMs"`
	Errors     []models.ScraperError `json:"errors,omitempty"`
}

func reported(result models.ScraperResult) SourceReport {
	report := SourceReport{
		Source:     result.Source,
		Jobs:       len(result.Jobs),
		DurationMs: result.DurationMs,
		Errors:     result.Errors,
		Status:     SourceOK,
	}
	switch {
	case result.Failed():
		report.Status = SourceFailed
	case len(result.Errors) > 0:
		report.Status = SourcePartial
	}
	return report
}

func timedOut(source models.Source) SourceReport {
	return SourceReport{Source: source, Status: SourceTimedOut}
}

// Outcome is everything a search produced, before it is rendered.
type Outcome struct {
	Criteria models.SearchCriteria
	Jobs     []models.ScoredJob
	Sources  []SourceReport
	Warnings []string
	Duration time.Duration
	Status   int
	Err      error
}

// classify sets Status and Warnings from the per-source reports.
func (o *Outcome) classify() {
	o.Warnings = nil
	clean, failed, timedOutCount := 0, 0, 0
	for _, report := range o.Sources {
		switch report.Status {
		case SourceOK:
			clean++
		case SourceFailed:
			failed++
			o.Warnings = append(o.Warnings, fmt.Sprintf("%s: failed (%s)", report.Source, describe(report.Errors)))
		case SourcePartial:
			o.Warnings = append(o.Warnings, fmt.Sprintf("%s: returned partial results (%s)", report.Source, describe(report.Errors)))
		case SourceTimedOut:
			timedOutCount++
			o.Warnings = append(o.Warnings, fmt.Sprintf("%s: did not finish before the deadline", report.Source))
		}
	}

	switch {
	case o.Err != nil:
		o.Status = http.StatusInternalServerError
	case len(o.Jobs) > 0 && clean == len(o.Sources):
		o.Status = http.StatusOK
	case len(o.Jobs) > 0:
		o.Status = http.StatusPartialContent
	case timedOutCount > 0:
		o.Status = http.StatusGatewayTimeout
	case failed == len(o.Sources) && failed > 0:
		o.Status = http.StatusServiceUnavailable
	case clean == len(o.Sources):
		o.Status = http.StatusOK
	default:
		o.Status = http.StatusPartialContent
	}
}

func describe(errs []models.ScraperError) string {
	if len(errs) == 0 {
		return "unknown error"
	}
	first := errs[0]
	if first.Code == "" {
		return first.Message
	}
	return first.Code + ": " + first.Message
}

// Response is the JSON envelope returned to clients.
type Response struct {
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
	Data      *ResponseData `json:"data,omitempty"`
	Error     *ErrorBody    `json:"error,omitempty"`
}

type ResponseData struct {
	Jobs     []models.ScoredJob `json:"jobs"`
	Metadata Metadata           `json:"metadata"`
	Warnings []string           `json:"warnings,omitempty"`
}

type Metadata struct {
	Query           string         `json:"query"`
	TotalJobs       int            `json:"totalJobs"`
	TotalDurationMs int64          `json:"totalDurationMs"`
	AverageScore    float64        `json:"averageScore"`
	HighestScore    float64        `json:"highestScore"`
	LowestScore     float64        `json:"lowestScore"`
	Warnings        []string       `json:"warnings,omitempty"`
	Sources         []SourceReport `json:"sources"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Response renders the outcome as the client facing envelope.
func (o Outcome) Response(now time.Time) Response {
	switch o.Status {
	case http.StatusInternalServerError:
		return Failure(now, CodeInternal, "An internal error occurred while ranking results", nil)
	case http.StatusServiceUnavailable:
		return Failure(now, CodeAllSourcesFailed, "All job sources failed to return results", o.Sources)
	case http.StatusGatewayTimeout:
		return Failure(now, CodeSearchTimeout, "Search timed out before any source returned results", o.Sources)
	}

	jobs := o.Jobs
	if jobs == nil {
		jobs = []models.ScoredJob{}
	}
	meta := Metadata{
		Query:           o.Criteria.Query,
		TotalJobs:       len(jobs),
		TotalDurationMs: o.Duration.Milliseconds(),
		Warnings:        o.Warnings,
		Sources:         o.Sources,
	}
	meta.AverageScore, meta.HighestScore, meta.LowestScore = scoreStats(jobs)

	return Response{
		Success:   true,
		Timestamp: now,
		Data: &ResponseData{
			Jobs:     jobs,
			Metadata: meta,
			Warnings: o.Warnings,
		},
	}
}

// Failure builds an unsuccessful envelope.
func Failure(now time.Time, code, message string, details any) Response {
	return Response{
		Success:   false,
		Timestamp: now,
		Error:     &ErrorBody{Code: code, Message: message, Details: details},
	}
}

// Rejection renders a request that failed decoding or validation.
func Rejection(now time.Time, err error) Response {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return Failure(now, CodeInvalidInput, err.Error(), nil)
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return Failure(now, CodeValidation, err.Error(), map[string]string{
			"field": validationErr.Field,
			"rule":  validationErr.Rule,
		})
	}
	return Failure(now, CodeValidation, "Invalid request data: "+err.Error(), nil)
}

func scoreStats(jobs []models.ScoredJob) (avg, high, low float64) {
	if len(jobs) == 0 {
		return 0, 0, 0
	}
	high, low = jobs[0].Score, jobs[0].Score
	var sum float64
	for _, job := range jobs {
		sum += job.Score
		high = math.Max(high, job.Score)
		low = math.Min(low, job.Score)
	}
	avg = math.Round(sum/float64(len(jobs))*100) / 100
	return avg, high, low
}
