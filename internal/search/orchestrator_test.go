package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/scoring"
	"github.com/MrJJimenez/jobscout/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeScraper struct {
	source models.Source
	jobs   []models.RawJob
	errs   []models.ScraperError
	// hang blocks until the context ends, then keeps working for linger.
	hang   bool
	linger time.Duration
	panics bool

	mu     sync.Mutex
	closed bool
	calls  int
}

func (f *fakeScraper) Name() models.Source { return f.source }

func (f *fakeScraper) Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.panics {
		panic("boom")
	}
	if f.hang {
		<-ctx.Done()
		time.Sleep(f.linger)
		return models.ScraperResult{
			Source: f.source,
			Jobs:   []models.RawJob{},
			Errors: []models.ScraperError{{Source: f.source, Code: scraper.CodeTimeout, Message: ctx.Err().Error()}},
		}
	}
	jobs := f.jobs
	if cfg.MaxResults > 0 && len(jobs) > cfg.MaxResults {
		jobs = jobs[:cfg.MaxResults]
	}
	return models.ScraperResult{Source: f.source, Jobs: jobs, Errors: f.errs, SuccessCount: len(jobs)}
}

func (f *fakeScraper) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func makeJobs(source models.Source, titles ...string) []models.RawJob {
	jobs := make([]models.RawJob, 0, len(titles))
	for i, title := range titles {
		url := fmt.Sprintf("https://%s.example.com/jobs/%d", source, i)
		jobs = append(jobs, models.RawJob{
			ID:         scraper.JobID(source, url),
			Title:      title,
			Company:    "Acme",
			Location:   "Austin, TX",
			URL:        url,
			Source:     source,
			PostedDate: refNow.Add(-48 * time.Hour),
			ScrapedAt:  refNow,
		})
	}
	return jobs
}

func failure(source models.Source, code string) []models.ScraperError {
	return []models.ScraperError{{Source: source, Code: code, Message: "upstream said no", Timestamp: refNow}}
}

func newTestOrchestrator(opts []Option, scrapers ...scraper.Scraper) *Orchestrator {
	engine := scoring.NewEngine(scoring.WithClock(func() time.Time { return refNow }))
	return NewOrchestrator(scraper.NewRegistry(scrapers...), engine, opts...)
}

func criteriaFor(timeout time.Duration, sources ...models.Source) models.SearchCriteria {
	return models.SearchCriteria{
		Query:      "Go Engineer",
		Location:   "Austin, TX",
		Sources:    sources,
		MaxResults: 25,
		Timeout:    timeout,
	}
}

func TestSearchPartialWhenOneSourceTimesOut(t *testing.T) {
	slow := &fakeScraper{source: models.SourceLinkedIn, hang: true, linger: 50 * time.Millisecond}
	fast := &fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer", "Senior Go Engineer", "Go Developer", "Backend Engineer", "Platform Engineer")}
	o := newTestOrchestrator(nil, slow, fast)

	outcome := o.Search(context.Background(), criteriaFor(100*time.Millisecond, models.SourceLinkedIn, models.SourceIndeed))

	assert.Equal(t, http.StatusPartialContent, outcome.Status)
	assert.Len(t, outcome.Jobs, 5)
	require.Len(t, outcome.Sources, 2)
	assert.Equal(t, SourceTimedOut, outcome.Sources[0].Status)
	assert.Equal(t, SourceOK, outcome.Sources[1].Status)

	resp := outcome.Response(refNow)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.NotEmpty(t, resp.Data.Jobs)
	assert.NotEmpty(t, resp.Data.Warnings)
	assert.Equal(t, resp.Data.Warnings, resp.Data.Metadata.Warnings)
	assert.Contains(t, resp.Data.Warnings[0], "linkedin")
}

func TestSearchAllSourcesClean(t *testing.T) {
	indeed := &fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer", "Office Manager")}
	glassdoor := &fakeScraper{source: models.SourceGlassdoor, jobs: makeJobs(models.SourceGlassdoor, "Senior Go Engineer")}
	o := newTestOrchestrator(nil, indeed, glassdoor)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed, models.SourceGlassdoor))

	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Empty(t, outcome.Warnings)
	require.Len(t, outcome.Jobs, 3)
	for i, job := range outcome.Jobs {
		assert.Equal(t, i+1, job.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, outcome.Jobs[i-1].Score, job.Score)
		}
	}
	assert.Equal(t, "Office Manager", outcome.Jobs[2].Title)

	resp := outcome.Response(refNow)
	assert.Equal(t, outcome.Jobs[0].Score, resp.Data.Metadata.HighestScore)
	assert.Equal(t, outcome.Jobs[2].Score, resp.Data.Metadata.LowestScore)
	assert.Nil(t, resp.Data.Warnings)
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	indeed := &fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "A", "B", "C")}
	glassdoor := &fakeScraper{source: models.SourceGlassdoor, jobs: makeJobs(models.SourceGlassdoor, "Go Engineer", "E")}
	o := newTestOrchestrator(nil, indeed, glassdoor)

	criteria := criteriaFor(time.Second, models.SourceIndeed, models.SourceGlassdoor)
	criteria.MaxResults = 2
	outcome := o.Search(context.Background(), criteria)

	require.Len(t, outcome.Jobs, 2)
	assert.Equal(t, "Go Engineer", outcome.Jobs[0].Title)
}

func TestSearchPartialWhenOneSourceFails(t *testing.T) {
	indeed := &fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer")}
	glassdoor := &fakeScraper{source: models.SourceGlassdoor, errs: failure(models.SourceGlassdoor, scraper.CodeBlocked)}
	o := newTestOrchestrator(nil, indeed, glassdoor)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed, models.SourceGlassdoor))

	assert.Equal(t, http.StatusPartialContent, outcome.Status)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "glassdoor: failed (BLOCKED")
}

func TestSearchPartialResultsFromOneSource(t *testing.T) {
	stepstone := &fakeScraper{
		source: models.SourceStepstone,
		jobs:   makeJobs(models.SourceStepstone, "Go Entwickler"),
		errs:   failure(models.SourceStepstone, scraper.CodeNavigation),
	}
	o := newTestOrchestrator(nil, stepstone)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceStepstone))

	assert.Equal(t, http.StatusPartialContent, outcome.Status)
	assert.Equal(t, SourcePartial, outcome.Sources[0].Status)
	assert.Contains(t, outcome.Warnings[0], "partial results")
}

func TestSearchAllSourcesFailed(t *testing.T) {
	indeed := &fakeScraper{source: models.SourceIndeed, errs: failure(models.SourceIndeed, scraper.CodeBlocked)}
	glassdoor := &fakeScraper{source: models.SourceGlassdoor, errs: failure(models.SourceGlassdoor, scraper.CodeParse)}
	o := newTestOrchestrator(nil, indeed, glassdoor)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed, models.SourceGlassdoor))
	assert.Equal(t, http.StatusServiceUnavailable, outcome.Status)

	resp := outcome.Response(refNow)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeAllSourcesFailed, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Message)
}

func TestSearchTimeoutWithoutJobs(t *testing.T) {
	slow := &fakeScraper{source: models.SourceLinkedIn, hang: true, linger: 50 * time.Millisecond}
	failing := &fakeScraper{source: models.SourceIndeed, errs: failure(models.SourceIndeed, scraper.CodeBlocked)}
	o := newTestOrchestrator(nil, slow, failing)

	start := time.Now()
	outcome := o.Search(context.Background(), criteriaFor(50*time.Millisecond, models.SourceLinkedIn, models.SourceIndeed))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusGatewayTimeout, outcome.Status)
	assert.Equal(t, CodeSearchTimeout, outcome.Response(refNow).Error.Code)
}

func TestSearchCleanButEmpty(t *testing.T) {
	indeed := &fakeScraper{source: models.SourceIndeed}
	o := newTestOrchestrator(nil, indeed)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed))
	assert.Equal(t, http.StatusOK, outcome.Status)

	resp := outcome.Response(refNow)
	require.NotNil(t, resp.Data)
	assert.NotNil(t, resp.Data.Jobs)
	assert.Empty(t, resp.Data.Jobs)
}

func TestSearchEmptyWithSomeFailures(t *testing.T) {
	indeed := &fakeScraper{source: models.SourceIndeed}
	glassdoor := &fakeScraper{source: models.SourceGlassdoor, errs: failure(models.SourceGlassdoor, scraper.CodeBlocked)}
	o := newTestOrchestrator(nil, indeed, glassdoor)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed, models.SourceGlassdoor))
	assert.Equal(t, http.StatusPartialContent, outcome.Status)
	assert.Len(t, outcome.Warnings, 1)
}

func TestSearchContainsScraperPanic(t *testing.T) {
	broken := &fakeScraper{source: models.SourceGlassdoor, panics: true}
	indeed := &fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer")}
	o := newTestOrchestrator(nil, broken, indeed)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceGlassdoor, models.SourceIndeed))

	assert.Equal(t, http.StatusPartialContent, outcome.Status)
	assert.Equal(t, SourceFailed, outcome.Sources[0].Status)
	assert.Equal(t, scraper.CodeInternal, outcome.Sources[0].Errors[0].Code)
}

func TestSearchReportsUnregisteredSource(t *testing.T) {
	o := newTestOrchestrator(nil, &fakeScraper{source: models.SourceIndeed})

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceAdzuna))
	assert.Equal(t, http.StatusServiceUnavailable, outcome.Status)
}

func TestSearchDeduplicatesAcrossSources(t *testing.T) {
	shared := makeJobs(models.SourceIndeed, "Go Engineer")
	a := &fakeScraper{source: models.SourceIndeed, jobs: shared}
	b := &fakeScraper{source: models.SourceGlassdoor, jobs: shared}
	o := newTestOrchestrator(nil, a, b)

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed, models.SourceGlassdoor))
	assert.Len(t, outcome.Jobs, 1)
}

func TestSearchIsDeterministic(t *testing.T) {
	build := func() *Orchestrator {
		return newTestOrchestrator(nil,
			&fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer", "Go Engineer", "Go Developer")},
			&fakeScraper{source: models.SourceGlassdoor, jobs: makeJobs(models.SourceGlassdoor, "Go Engineer")},
		)
	}
	criteria := criteriaFor(time.Second, models.SourceIndeed, models.SourceGlassdoor)

	first := build().Search(context.Background(), criteria)
	second := build().Search(context.Background(), criteria)

	require.Len(t, second.Jobs, len(first.Jobs))
	for i := range first.Jobs {
		assert.Equal(t, first.Jobs[i].ID, second.Jobs[i].ID)
		assert.Equal(t, first.Jobs[i].Score, second.Jobs[i].Score)
	}
}

type panickyRanker struct{}

func (panickyRanker) ScoreJobs([]models.RawJob, models.SearchCriteria) []models.ScoredJob {
	panic("nil weights")
}

func TestSearchScoringFailureIsInternal(t *testing.T) {
	registry := scraper.NewRegistry(&fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer")})
	o := NewOrchestrator(registry, panickyRanker{})

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed))
	assert.Equal(t, http.StatusInternalServerError, outcome.Status)
	require.Error(t, outcome.Err)

	resp := outcome.Response(refNow)
	assert.False(t, resp.Success)
	assert.Equal(t, CodeInternal, resp.Error.Code)
}

type recordingSink struct {
	mu      sync.Mutex
	queries []string
	jobs    []models.ScoredJob
	err     error
}

func (s *recordingSink) Save(_ context.Context, query string, jobs []models.ScoredJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	s.jobs = append(s.jobs, jobs...)
	return s.err
}

func TestSearchHandsJobsToSink(t *testing.T) {
	sink := &recordingSink{}
	o := newTestOrchestrator([]Option{WithSink(sink)}, &fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer")})

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed))
	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Len(t, sink.jobs, 1)
	assert.Equal(t, []string{"Go Engineer"}, sink.queries)
}

func TestSearchIgnoresSinkFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	o := newTestOrchestrator([]Option{WithSink(sink)}, &fakeScraper{source: models.SourceIndeed, jobs: makeJobs(models.SourceIndeed, "Go Engineer")})

	outcome := o.Search(context.Background(), criteriaFor(time.Second, models.SourceIndeed))
	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.NoError(t, outcome.Err)
}

func TestRejection(t *testing.T) {
	_, err := Normalize(Request{Query: " "}, DefaultLimits())
	resp := Rejection(refNow, err)
	assert.False(t, resp.Success)
	assert.Equal(t, CodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Invalid request data")

	_, err = ParseRequest(strings.NewReader("nope"))
	resp = Rejection(refNow, err)
	assert.Equal(t, CodeInvalidInput, resp.Error.Code)
}
