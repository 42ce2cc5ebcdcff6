package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	shutdownGracePeriod = 10 * time.Second
	// Writes must outlive the longest search a client may request.
	writeTimeoutSlack = 15 * time.Second
)

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Addr       string
	Debug      bool
	MaxTimeout time.Duration
}

// Server is the HTTP boundary around a search handler.
type Server struct {
	http   *http.Server
	logger zerolog.Logger
}

// NewServer builds the gin engine and wraps it in an http.Server.
func NewServer(handler *Handler, cfg ServerConfig, logger zerolog.Logger) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := NewRouter(handler, logger)

	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: cfg.MaxTimeout + writeTimeoutSlack,
			IdleTimeout:  defaultIdleTimeout,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	s.logger.Info().Msg("http server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
