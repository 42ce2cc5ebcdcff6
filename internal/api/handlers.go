package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/search"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Searcher runs normalized searches. *search.Orchestrator implements it.
type Searcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria) search.Outcome
	Sources() []models.Source
}

// Handler holds HTTP request handlers.
type Handler struct {
	searcher Searcher
	limits   search.Limits
	version  string
	logger   zerolog.Logger
	now      func() time.Time
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithClock overrides the timestamp source of responses.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates a new handler instance.
func NewHandler(searcher Searcher, limits search.Limits, version string, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		searcher: searcher,
		limits:   limits,
		version:  version,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Search handles POST /api/v1/search.
func (h *Handler) Search(c *gin.Context) {
	var req search.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid search request body")
		c.JSON(http.StatusBadRequest, search.Rejection(h.now(), &search.InputError{Err: err}))
		return
	}

	criteria, err := search.Normalize(req, h.limits)
	if err != nil {
		h.logger.Warn().Err(err).Str("query", req.Query).Msg("search request rejected")
		c.JSON(http.StatusBadRequest, search.Rejection(h.now(), err))
		return
	}

	outcome := h.searcher.Search(c.Request.Context(), criteria)
	c.JSON(outcome.Status, outcome.Response(h.now()))
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheck handles health check requests.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: h.now(),
	})
}

// SourcesResponse lists the sources a client may request.
type SourcesResponse struct {
	Sources []models.Source `json:"sources"`
}

// ListSources handles GET /api/v1/sources.
func (h *Handler) ListSources(c *gin.Context) {
	sources := []models.Source{}
	for _, source := range h.searcher.Sources() {
		if len(h.limits.Enabled) == 0 || slices.Contains(h.limits.Enabled, source) {
			sources = append(sources, source)
		}
	}
	c.JSON(http.StatusOK, SourcesResponse{Sources: sources})
}
