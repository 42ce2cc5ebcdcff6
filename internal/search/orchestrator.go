package search

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/scoring"
	"github.com/MrJJimenez/jobscout/internal/scraper"
	"github.com/rs/zerolog"
)

// Sink receives the ranked jobs of every successful search.
type Sink interface {
	Save(ctx context.Context, query string, jobs []models.ScoredJob) error
}

// Ranker scores and orders aggregated jobs.
type Ranker interface {
	ScoreJobs(jobs []models.RawJob, criteria models.SearchCriteria) []models.ScoredJob
}

// Orchestrator runs one search across many sources under a single deadline.
type Orchestrator struct {
	registry *scraper.Registry
	ranker   Ranker
	logger   zerolog.Logger
	sink     Sink
	now      func() time.Time
}

type Option func(*Orchestrator)

func WithSink(sink Sink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator builds an orchestrator; a nil ranker uses the default
// scoring engine.
func NewOrchestrator(registry *scraper.Registry, ranker Ranker, opts ...Option) *Orchestrator {
	if ranker == nil {
		ranker = scoring.NewEngine()
	}
	o := &Orchestrator{
		registry: registry,
		ranker:   ranker,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sources lists the sources the orchestrator can search.
func (o *Orchestrator) Sources() []models.Source {
	return o.registry.Sources()
}

type finished struct {
	index  int
	result models.ScraperResult
}

// Search fans out to every source in criteria and waits until all of them
// report or the deadline passes, whichever comes first. Sources still
// running at the deadline are abandoned and reported as timed out.
func (o *Orchestrator) Search(ctx context.Context, criteria models.SearchCriteria) Outcome {
	start := o.now()
	timeout := criteria.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg := models.ScrapeConfig{
		SearchQuery: criteria.Query,
		Location:    criteria.Location,
		MaxResults:  criteria.MaxResults,
	}
	if len(criteria.JobTypes) > 0 {
		cfg.JobType = criteria.JobTypes[0]
	}

	// Buffered so abandoned scrapers can still deliver and exit.
	done := make(chan finished, len(criteria.Sources))
	for i, source := range criteria.Sources {
		s, ok := o.registry.Get(source)
		if !ok {
			done <- finished{index: i, result: unavailable(source, o.now())}
			continue
		}
		go o.run(searchCtx, i, s, cfg, done)
	}

	results := make([]*models.ScraperResult, len(criteria.Sources))
	pending := len(criteria.Sources)
wait:
	for pending > 0 {
		select {
		case f := <-done:
			result := f.result
			results[f.index] = &result
			pending--
		case <-searchCtx.Done():
			break wait
		}
	}
	// A scraper may have delivered while the deadline fired.
	for drained := false; !drained; {
		select {
		case f := <-done:
			if results[f.index] == nil {
				result := f.result
				results[f.index] = &result
			}
		default:
			drained = true
		}
	}

	outcome := Outcome{Criteria: criteria}
	var jobs []models.RawJob
	seen := map[string]struct{}{}
	for i, source := range criteria.Sources {
		result := results[i]
		if result == nil {
			outcome.Sources = append(outcome.Sources, timedOut(source))
			o.logger.Warn().Str("source", string(source)).Dur("timeout", timeout).Msg("source abandoned at deadline")
			continue
		}
		outcome.Sources = append(outcome.Sources, reported(*result))
		for _, job := range result.Jobs {
			if _, dup := seen[job.ID]; dup {
				continue
			}
			seen[job.ID] = struct{}{}
			jobs = append(jobs, job)
		}
	}

	scored, err := o.score(jobs, criteria)
	if err != nil {
		o.logger.Error().Err(err).Msg("scoring failed")
		outcome.Err = err
	} else {
		if criteria.MaxResults > 0 && len(scored) > criteria.MaxResults {
			scored = scored[:criteria.MaxResults]
		}
		outcome.Jobs = scored
	}
	outcome.Duration = o.now().Sub(start)
	outcome.classify()

	o.logger.Info().
		Str("query", criteria.Query).
		Int("jobs", len(outcome.Jobs)).
		Int("status", outcome.Status).
		Dur("duration", outcome.Duration).
		Msg("search finished")

	if o.sink != nil && len(outcome.Jobs) > 0 {
		if err := o.sink.Save(ctx, criteria.Query, outcome.Jobs); err != nil {
			o.logger.Warn().Err(err).Msg("saving results failed")
		}
	}
	return outcome
}

func (o *Orchestrator) run(ctx context.Context, index int, s scraper.Scraper, cfg models.ScrapeConfig, done chan<- finished) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("source", string(s.Name())).Interface("panic", r).Msg("scraper panicked")
			done <- finished{index: index, result: models.ScraperResult{
				Source: s.Name(),
				Jobs:   []models.RawJob{},
				Errors: []models.ScraperError{{
					Source:    s.Name(),
					Message:   fmt.Sprintf("scraper panic: %v", r),
					Code:      scraper.CodeInternal,
					Timestamp: o.now(),
				}},
				ScrapedAt: o.now(),
			}}
		}
	}()

	result := s.Scrape(ctx, cfg)
	if result.Source == "" {
		result.Source = s.Name()
	}
	o.logger.Debug().
		Str("source", string(s.Name())).
		Int("jobs", len(result.Jobs)).
		Int("errors", len(result.Errors)).
		Int64("duration_ms", result.DurationMs).
		Msg("source finished")
	done <- finished{index: index, result: result}
}

func (o *Orchestrator) score(jobs []models.RawJob, criteria models.SearchCriteria) (scored []models.ScoredJob, err error) {
	defer func() {
		if r := recover(); r != nil {
			scored = nil
			err = fmt.Errorf("scoring panic: %v\n%s", r, debug.Stack())
		}
	}()
	return o.ranker.ScoreJobs(jobs, criteria), nil
}

func unavailable(source models.Source, now time.Time) models.ScraperResult {
	return models.ScraperResult{
		Source: source,
		Jobs:   []models.RawJob{},
		Errors: []models.ScraperError{{
			Source:    source,
			Message:   "no scraper registered for source",
			Code:      scraper.CodeConfigMissing,
			Timestamp: now,
		}},
		ScrapedAt: now,
	}
}
