package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/MrJJimenez/jobscout/internal/network"
)

var fastRetry = RetryPolicy{Attempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestRetryPolicyRetriesTransientErrors(t *testing.T) {
	calls := 0
	attempts, err := fastRetry.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return &network.StatusError{Code: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestRetryPolicyGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	attempts, err := fastRetry.Do(context.Background(), func(int) error {
		calls++
		return &network.StatusError{Code: 429}
	})
	var statusErr *network.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 429 {
		t.Fatalf("expected last error to be returned, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestRetryPolicyDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	_, err := fastRetry.Do(context.Background(), func(int) error {
		calls++
		return blocked("captcha")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected a single failed attempt, got calls=%d err=%v", calls, err)
	}
}

func TestRetryPolicyStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := RetryPolicy{Attempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}

	done := make(chan struct{})
	var calls int
	go func() {
		defer close(done)
		_, _ = slow.Do(ctx, func(int) error {
			calls++
			return &network.StatusError{Code: 502}
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("backoff did not stop after cancellation")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicyDefaults(t *testing.T) {
	policy := RetryPolicy{}.withDefaults()
	if policy != DefaultRetryPolicy {
		t.Fatalf("expected defaults, got %+v", policy)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&network.StatusError{Code: 500}, true},
		{fmt.Errorf("fetch: %w", &network.StatusError{Code: 503}), true},
		{&network.StatusError{Code: 429}, true},
		{&network.StatusError{Code: 404}, false},
		{&network.StatusError{Code: 403}, false},
		{errors.New("read tcp: connection reset by peer"), true},
		{io.ErrUnexpectedEOF, true},
		{context.Canceled, false},
		{blocked("login wall"), false},
		{launchFailed(errors.New("no chrome")), false},
		{codedError(CodeNavigation, errors.New("dial tcp: i/o timeout")), true},
	}

	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Fatalf("isTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, CodeTimeout},
		{fmt.Errorf("scrape: %w", context.Canceled), CodeCancelled},
		{&network.StatusError{Code: 403}, CodeBlocked},
		{&network.StatusError{Code: 500}, CodeNavigation},
		{parseFailed(errors.New("bad html")), CodeParse},
		{codedError(CodeConfigMissing, errors.New("missing key")), CodeConfigMissing},
		{errors.New("boom"), CodeNavigation},
	}

	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
