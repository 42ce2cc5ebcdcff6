package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/search"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type stubSearcher struct {
	outcome  search.Outcome
	sources  []models.Source
	criteria *models.SearchCriteria
	panics   bool
}

func (s *stubSearcher) Search(_ context.Context, criteria models.SearchCriteria) search.Outcome {
	if s.panics {
		panic("searcher exploded")
	}
	s.criteria = &criteria
	outcome := s.outcome
	outcome.Criteria = criteria
	return outcome
}

func (s *stubSearcher) Sources() []models.Source {
	return s.sources
}

func setupRouter(searcher Searcher, limits search.Limits) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(searcher, limits, "1.2.3", zerolog.Nop(), WithClock(func() time.Time { return fixedNow }))
	return NewRouter(handler, zerolog.Nop())
}

func postSearch(t *testing.T, router http.Handler, body string) (*httptest.ResponseRecorder, search.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func scoredJob(id string, score float64, rank int) models.ScoredJob {
	return models.ScoredJob{
		RawJob: models.RawJob{ID: id, Title: "Go Engineer", URL: "https://example.com/" + id, Source: models.SourceIndeed},
		Score:  score,
		Rank:   rank,
	}
}

func TestSearchOK(t *testing.T) {
	searcher := &stubSearcher{outcome: search.Outcome{
		Jobs:    []models.ScoredJob{scoredJob("a", 90, 1), scoredJob("b", 70, 2)},
		Sources: []search.SourceReport{{Source: models.SourceIndeed, Status: search.SourceOK, Jobs: 2}},
		Status:  http.StatusOK,
	}}
	router := setupRouter(searcher, search.DefaultLimits())

	rec, resp := postSearch(t, router, `{"query":"  go engineer ","location":"Austin, TX","sources":["indeed"],"maxResults":10}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, fixedNow, resp.Timestamp)
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data.Jobs, 2)
	assert.Equal(t, "go engineer", resp.Data.Metadata.Query)
	assert.Equal(t, 80.0, resp.Data.Metadata.AverageScore)
	assert.Equal(t, 90.0, resp.Data.Metadata.HighestScore)
	assert.Equal(t, 70.0, resp.Data.Metadata.LowestScore)

	require.NotNil(t, searcher.criteria)
	assert.Equal(t, 10, searcher.criteria.MaxResults)
	assert.Equal(t, []models.Source{models.SourceIndeed}, searcher.criteria.Sources)
	assert.Equal(t, search.DefaultTimeout, searcher.criteria.Timeout)
}

func TestSearchPartialContent(t *testing.T) {
	searcher := &stubSearcher{outcome: search.Outcome{
		Jobs: []models.ScoredJob{scoredJob("a", 50, 1)},
		Sources: []search.SourceReport{
			{Source: models.SourceIndeed, Status: search.SourceOK, Jobs: 1},
			{Source: models.SourceLinkedIn, Status: search.SourceTimedOut},
		},
		Warnings: []string{"linkedin: did not finish before the deadline"},
		Status:   http.StatusPartialContent,
	}}
	router := setupRouter(searcher, search.DefaultLimits())

	rec, resp := postSearch(t, router, `{"query":"go"}`)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"linkedin: did not finish before the deadline"}, resp.Data.Warnings)
}

func TestSearchFailureStatuses(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusServiceUnavailable, search.CodeAllSourcesFailed},
		{http.StatusGatewayTimeout, search.CodeSearchTimeout},
		{http.StatusInternalServerError, search.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			searcher := &stubSearcher{outcome: search.Outcome{Status: tt.status}}
			rec, resp := postSearch(t, setupRouter(searcher, search.DefaultLimits()), `{"query":"go"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestSearchRejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{"malformed json", `{"query":`, search.CodeInvalidInput, "Invalid input format"},
		{"wrong type", `{"query":42}`, search.CodeInvalidInput, "Invalid input format"},
		{"empty query", `{"query":"   "}`, search.CodeValidation, "query is required"},
		{"inverted salary", `{"query":"go","salary":{"min":90000,"max":50000}}`, search.CodeValidation, "salary range"},
		{"unknown source", `{"query":"go","sources":["monster"]}`, search.CodeValidation, `unknown source "monster"`},
		{"weight out of range", `{"query":"go","scoringWeights":{"location":2}}`, search.CodeValidation, "between 0 and 1"},
		{"zero max results", `{"query":"go","maxResults":0}`, search.CodeValidation, "maxResults"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &stubSearcher{}
			rec, resp := postSearch(t, setupRouter(searcher, search.DefaultLimits()), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.message)
			assert.Nil(t, searcher.criteria, "searcher must not run for rejected requests")
		})
	}
}

func TestSearchRecoversPanics(t *testing.T) {
	rec, resp := postSearch(t, setupRouter(&stubSearcher{panics: true}, search.DefaultLimits()), `{"query":"go"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, search.CodeInternal, resp.Error.Code)
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(&stubSearcher{}, search.DefaultLimits())
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		var health HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "1.2.3", health.Version)
	}
}

func TestListSources(t *testing.T) {
	searcher := &stubSearcher{sources: []models.Source{models.SourceLinkedIn, models.SourceIndeed, models.SourceAdzuna}}
	limits := search.DefaultLimits()
	limits.Enabled = []models.Source{models.SourceIndeed, models.SourceAdzuna}
	router := setupRouter(searcher, limits)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body SourcesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []models.Source{models.SourceIndeed, models.SourceAdzuna}, body.Sources)
}
