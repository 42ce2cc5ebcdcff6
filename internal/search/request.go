package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxResults = 25
	DefaultTimeout    = 30 * time.Second
	MaxTimeout        = 60 * time.Second
)

// Request is the wire form of a search. Optional numbers are pointers so an
// explicit zero can be told apart from an absent value.
type Request struct {
	Query              string                 `json:"query" validate:"required"`
	Location           string                 `json:"location"`
	PreferredLocations []string               `json:"preferredLocations"`
	Sources            []string               `json:"sources" validate:"omitempty,dive,jobsource"`
	Salary             *models.SalaryRange    `json:"salary"`
	JobTypes           []string               `json:"jobTypes"`
	Keywords           []string               `json:"keywords"`
	ScoringWeights     *models.ScoringWeights `json:"scoringWeights"`
	MaxResults         *int                   `json:"maxResults" validate:"omitnil,gt=0"`
	TimeoutMs          *int64                 `json:"timeoutMs" validate:"omitnil,gt=0"`
}

// Limits are the server side bounds applied while normalizing a Request.
type Limits struct {
	DefaultMaxResults int
	DefaultTimeout    time.Duration
	MaxTimeout        time.Duration
	// Enabled lists the sources that may be searched; empty means all.
	Enabled []models.Source
}

// DefaultLimits returns the built-in bounds.
func DefaultLimits() Limits {
	return Limits{
		DefaultMaxResults: DefaultMaxResults,
		DefaultTimeout:    DefaultTimeout,
		MaxTimeout:        MaxTimeout,
	}
}

func (l Limits) withDefaults() Limits {
	if l.DefaultMaxResults <= 0 {
		l.DefaultMaxResults = DefaultMaxResults
	}
	if l.MaxTimeout <= 0 {
		l.MaxTimeout = MaxTimeout
	}
	if l.DefaultTimeout <= 0 {
		l.DefaultTimeout = DefaultTimeout
	}
	if l.DefaultTimeout > l.MaxTimeout {
		l.DefaultTimeout = l.MaxTimeout
	}
	if len(l.Enabled) == 0 {
		l.Enabled = models.AllSources
	}
	return l
}

// ValidationError reports a request rejected before any source was contacted.
type ValidationError struct {
	Field string
	Rule  string
	msg   string
}

func (e *ValidationError) Error() string {
	return "Invalid request data: " + e.msg
}

// InputError reports a body that could not be decoded.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return "Invalid input format: " + e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ParseRequest decodes a JSON request body.
func ParseRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, &InputError{Err: err}
	}
	return req, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("jobsource", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseSource(fl.Field().String())
		return ok
	})
	v.RegisterStructValidation(validateSalaryRange, models.SalaryRange{})
	v.RegisterStructValidation(validateWeights, models.ScoringWeights{})
	return v
}

func validateSalaryRange(sl validator.StructLevel) {
	salary := sl.Current().Interface().(models.SalaryRange)
	if salary.Min < 0 {
		sl.ReportError(salary.Min, "min", "Min", "gte", "0")
	}
	if salary.Max < 0 {
		sl.ReportError(salary.Max, "max", "Max", "gte", "0")
	}
	if salary.Max > 0 && salary.Min > salary.Max {
		sl.ReportError(salary.Min, "min", "Min", "salaryrange", "")
	}
}

func validateWeights(sl validator.StructLevel) {
	weights := sl.Current().Interface().(models.ScoringWeights)
	fields := []struct {
		name  string
		value float64
	}{
		{"location", weights.Location},
		{"titleRelevance", weights.TitleRelevance},
		{"salary", weights.Salary},
		{"sourceQuality", weights.SourceQuality},
	}
	for _, f := range fields {
		if f.value < 0 || f.value > 1 {
			sl.ReportError(f.value, f.name, f.name, "weight", "")
		}
	}
}

// Normalize validates req and turns it into the immutable criteria of one
// search: the query is trimmed, defaults are applied and the timeout is
// capped.
func Normalize(req Request, limits Limits) (models.SearchCriteria, error) {
	limits = limits.withDefaults()
	req.Query = strings.TrimSpace(req.Query)

	if err := validate.Struct(req); err != nil {
		return models.SearchCriteria{}, translate(err)
	}

	criteria := models.SearchCriteria{
		Query:              req.Query,
		Location:           strings.TrimSpace(req.Location),
		PreferredLocations: compact(req.PreferredLocations),
		JobTypes:           compact(req.JobTypes),
		Keywords:           compact(req.Keywords),
		MaxResults:         limits.DefaultMaxResults,
		Timeout:            limits.DefaultTimeout,
	}
	if req.Salary != nil {
		salary := *req.Salary
		criteria.Salary = &salary
	}
	if req.ScoringWeights != nil {
		weights := *req.ScoringWeights
		criteria.ScoringWeights = &weights
	}
	if req.MaxResults != nil {
		criteria.MaxResults = *req.MaxResults
	}
	if req.TimeoutMs != nil {
		// Compare in milliseconds; converting first can overflow Duration.
		if *req.TimeoutMs > limits.MaxTimeout.Milliseconds() {
			criteria.Timeout = limits.MaxTimeout
		} else {
			criteria.Timeout = time.Duration(*req.TimeoutMs) * time.Millisecond
		}
	}
	if criteria.Timeout > limits.MaxTimeout {
		criteria.Timeout = limits.MaxTimeout
	}

	sources, err := resolveSources(req.Sources, limits.Enabled)
	if err != nil {
		return models.SearchCriteria{}, err
	}
	criteria.Sources = sources
	return criteria, nil
}

func resolveSources(requested []string, enabled []models.Source) ([]models.Source, error) {
	if len(requested) == 0 {
		return append([]models.Source(nil), enabled...), nil
	}

	allowed := make(map[models.Source]struct{}, len(enabled))
	for _, source := range enabled {
		allowed[source] = struct{}{}
	}

	seen := make(map[models.Source]struct{}, len(requested))
	sources := make([]models.Source, 0, len(requested))
	for _, value := range requested {
		source, _ := models.ParseSource(value)
		if _, ok := allowed[source]; !ok {
			return nil, &ValidationError{
				Field: "sources",
				Rule:  "enabled",
				msg:   fmt.Sprintf("source %q is not enabled", value),
			}
		}
		if _, dup := seen[source]; dup {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources, nil
}

func compact(values []string) []string {
	var out []string
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// translate turns the first validator failure into a ValidationError.
func translate(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &ValidationError{Rule: "invalid", msg: err.Error()}
	}

	fe := errs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required and must not be empty", field)
	case "jobsource":
		msg = fmt.Sprintf("unknown source %q", fe.Value())
	case "salaryrange":
		msg = "salary range min must not exceed max"
	case "weight":
		msg = fmt.Sprintf("%s must be between 0 and 1", field)
	case "gt":
		msg = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		msg = fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
	if strings.HasPrefix(field, "salary") && fe.Tag() != "salaryrange" {
		msg = "salary range: " + msg
	}
	return &ValidationError{Field: field, Rule: fe.Tag(), msg: msg}
}
