package api

import (
	"net/http"
	"time"

	"github.com/MrJJimenez/jobscout/internal/search"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoggerMiddleware logs HTTP requests.
func LoggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// RecoveryMiddleware turns handler panics into the standard error envelope.
func RecoveryMiddleware(logger zerolog.Logger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					search.Failure(now(), search.CodeInternal, "Internal server error", nil))
			}
		}()

		c.Next()
	}
}
