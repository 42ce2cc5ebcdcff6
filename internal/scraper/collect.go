package scraper

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fetchFunc performs one scrape attempt. It owns any session it opens and
// must release it before returning. Returning jobs together with an error
// reports a partial result that is kept and not retried.
type fetchFunc func(ctx context.Context) ([]models.RawJob, error)

// base carries what every scraper shares: identity, retry policy, logger and clock.
type base struct {
	source models.Source
	retry  RetryPolicy
	logger zerolog.Logger
	now    func() time.Time
}

func newBase(source models.Source, opts Options) base {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return base{
		source: source,
		retry:  opts.Retry.withDefaults(),
		logger: opts.Logger.With().Str("source", string(source)).Logger(),
		now:    now,
	}
}

func (b base) Name() models.Source {
	return b.source
}

func (b base) Close() error {
	return nil
}

// collect runs fetch under the retry policy and turns everything that can go
// wrong into ScraperErrors. It never panics and never returns an error.
func (b base) collect(ctx context.Context, cfg models.ScrapeConfig, fetch fetchFunc) models.ScraperResult {
	start := b.now()
	result := models.ScraperResult{
		Source:    b.source,
		Jobs:      []models.RawJob{},
		Errors:    []models.ScraperError{},
		ScrapedAt: start,
	}

	var (
		listings   []models.RawJob
		partialErr error
	)
	attempts, err := b.retry.Do(ctx, func(attempt int) error {
		jobs, fetchErr := safeFetch(ctx, fetch)
		if fetchErr != nil && len(jobs) > 0 {
			listings, partialErr = jobs, fetchErr
			return nil
		}
		if fetchErr != nil {
			b.logger.Debug().Err(fetchErr).Int("attempt", attempt).Msg("scrape attempt failed")
			return fetchErr
		}
		listings = jobs
		return nil
	})

	if err != nil {
		result.Errors = append(result.Errors, b.scraperError(err, cfg, attempts))
		b.logger.Warn().Err(err).Int("attempts", attempts).Msg("scrape failed")
	}
	if partialErr != nil {
		result.Errors = append(result.Errors, b.scraperError(partialErr, cfg, attempts))
		b.logger.Warn().Err(partialErr).Int("jobs", len(listings)).Msg("scrape returned partial results")
	}

	jobs, invalid := b.normalize(listings, start)
	if cfg.MaxResults > 0 && len(jobs) > cfg.MaxResults {
		jobs = jobs[:cfg.MaxResults]
	}
	result.Jobs = jobs
	result.ScrapedCount = len(listings)
	result.SuccessCount = len(jobs)
	result.FailedCount = invalid
	result.DurationMs = b.now().Sub(start).Milliseconds()

	b.logger.Debug().
		Int("jobs", len(jobs)).
		Int("invalid", invalid).
		Int64("duration_ms", result.DurationMs).
		Msg("scrape finished")
	return result
}

func safeFetch(ctx context.Context, fetch fetchFunc) (jobs []models.RawJob, err error) {
	defer func() {
		if r := recover(); r != nil {
			jobs = nil
			err = codedError(CodeInternal, fmt.Errorf("scraper panic: %v\n%s", r, debug.Stack()))
		}
	}()
	return fetch(ctx)
}

func (b base) scraperError(err error, cfg models.ScrapeConfig, attempts int) models.ScraperError {
	return models.ScraperError{
		Source:    b.source,
		Message:   err.Error(),
		Code:      ErrorCode(err),
		Timestamp: b.now(),
		Context: map[string]any{
			"attempts": attempts,
			"query":    cfg.SearchQuery,
			"location": cfg.Location,
		},
	}
}

// normalize fills every required RawJob field and drops listings without a
// title or URL. It returns the kept jobs and the number dropped.
func (b base) normalize(listings []models.RawJob, scrapedAt time.Time) ([]models.RawJob, int) {
	jobs := make([]models.RawJob, 0, len(listings))
	seen := make(map[string]struct{}, len(listings))
	invalid := 0

	for _, listing := range listings {
		job := listing
		job.Title = cleanText(job.Title)
		job.URL = strings.TrimSpace(job.URL)
		if job.Title == "" || job.URL == "" {
			invalid++
			continue
		}

		job.Source = b.source
		job.Company = cleanText(job.Company)
		if job.Company == "" {
			job.Company = models.UnknownCompany
		}
		job.Location = cleanText(job.Location)
		if job.Location == "" {
			job.Location = models.UnknownLocation
		}
		job.Description = strings.TrimSpace(job.Description)
		if job.ID == "" {
			job.ID = JobID(b.source, job.URL)
		}
		if _, dup := seen[job.ID]; dup {
			continue
		}
		seen[job.ID] = struct{}{}

		metadata := make(map[string]any, len(listing.Metadata)+1)
		for key, value := range listing.Metadata {
			metadata[key] = value
		}
		job.ScrapedAt = scrapedAt
		if job.PostedDate.IsZero() {
			job.PostedDate = scrapedAt
			metadata[models.MetaPostedDateEstimated] = true
		}
		job.Metadata = metadata

		jobs = append(jobs, job)
	}
	return jobs, invalid
}

// JobID derives a stable identifier from the source and posting URL.
func JobID(source models.Source, postingURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(string(source)+"|"+postingURL)).String()
}
