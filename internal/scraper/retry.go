package scraper

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a transient failure is retried.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy is used when a scraper is built without one.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:     3,
	InitialDelay: 250 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetryPolicy.Attempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultRetryPolicy.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	return p
}

// Do runs fn until it succeeds, fails permanently, the attempts are used up
// or ctx is done. It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) (int, error) {
	p = p.withDefaults()
	delay := p.InitialDelay

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt - 1, err
		}

		err = fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil || !isTransient(err) || attempt == p.Attempts {
			return attempt, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, err
		case <-timer.C:
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return p.Attempts, err
}
