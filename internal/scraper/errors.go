package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/MrJJimenez/jobscout/internal/network"
)

// Error codes recorded in ScraperError.Code.
const (
	CodeNavigation    = "NAVIGATION_FAILED"
	CodeBlocked       = "BLOCKED"
	CodeParse         = "PARSE_FAILED"
	CodeLaunch        = "LAUNCH_FAILED"
	CodeTimeout       = "TIMEOUT"
	CodeCancelled     = "CANCELLED"
	CodeConfigMissing = "CONFIG_MISSING"
	CodeInternal      = "INTERNAL"
)

// Error is a scrape failure with a classification code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func codedError(code string, err error) error {
	return &Error{Code: code, Err: err}
}

func launchFailed(err error) error {
	return codedError(CodeLaunch, fmt.Errorf("session start failed: %w", err))
}

func parseFailed(err error) error {
	return codedError(CodeParse, fmt.Errorf("parse failed: %w", err))
}

func blocked(reason string) error {
	return codedError(CodeBlocked, fmt.Errorf("blocked by source: %s", reason))
}

// ErrorCode classifies err for reporting.
func ErrorCode(err error) string {
	var scrapeErr *Error
	if errors.As(err, &scrapeErr) {
		return scrapeErr.Code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	}
	var statusErr *network.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case 401, 403, 429, 999:
			return CodeBlocked
		}
	}
	return CodeNavigation
}

var transientPatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"temporary failure",
	"network is unreachable",
	"unexpected eof",
	"tls handshake",
}

// isTransient reports whether retrying err might succeed.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var scrapeErr *Error
	if errors.As(err, &scrapeErr) && scrapeErr.Code != CodeNavigation {
		return false
	}
	var statusErr *network.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
