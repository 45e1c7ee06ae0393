package alerts

import (
	"context"
	"log/slog"
	"time"
)

// Backoff bounds retries of a rate-limited platform call.
type Backoff struct {
	Retries int           // retries after the first attempt
	Base    time.Duration // first computed wait, doubled per attempt
	Max     time.Duration // cap on a computed wait; 0 leaves it uncapped
}

// DefaultBackoff suits the Slack and Discord Web APIs.
var DefaultBackoff = Backoff{Retries: 3, Base: time.Second, Max: 30 * time.Second}

// RateLimit classifies an error from a platform call. ok is false for errors
// that must not be retried; wait is the delay the platform asked for, or zero.
type RateLimit func(err error) (wait time.Duration, ok bool)

// Retry calls fn, sleeping and calling again while limited reports a rate
// limit, until b.Retries retries are spent or ctx is done.
func (b Backoff) Retry(ctx context.Context, limited RateLimit, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		wait, ok := limited(err)
		if !ok || attempt >= b.Retries {
			return err
		}
		if wait <= 0 {
			wait = b.delay(attempt)
		}
		slog.Warn("alert rate limited", "attempt", attempt+1, "retries", b.Retries, "wait", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Base << attempt
	if b.Max > 0 && (d > b.Max || d <= 0) {
		d = b.Max
	}
	return d
}
