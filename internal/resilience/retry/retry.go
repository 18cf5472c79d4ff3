// Package retry re-runs article store calls that failed on a transient
// connection problem. Delays grow exponentially and carry random jitter.
package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"github.com/sony/gobreaker"

	"newsportal/internal/observability/logging"
)

// Policy bounds how often and how long an operation is retried.
type Policy struct {
	Attempts  int           // Total tries including the first; values below 1 mean 1
	BaseDelay time.Duration // Wait before the second try
	MaxDelay  time.Duration // Cap for the doubled delay
	Jitter    float64       // Extra random share of each delay, 0 to 1
}

// Startup is used while waiting for the database at process start.
func Startup() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Jitter: 0.1}
}

// Store is used around reads and writes of a single article.
func Store() Policy {
	return Policy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.1}
}

// Once never retries.
func Once() Policy {
	return Policy{Attempts: 1}
}

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Do calls fn until it succeeds, returns an error IsRetryable rejects, or the
// policy runs out. Cancellation of ctx during a wait ends the loop with ctx's error.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)
	delay := p.BaseDelay
	logger := logging.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("store call succeeded after retry", slog.Int("attempt", attempt))
			}
			return v, nil
		}
		if !IsRetryable(err) {
			return v, err
		}
		if attempt >= attempts {
			var zero T
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
		}

		wait := withJitter(delay, p.Jitter)
		logger.Warn("store call failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			var zero T
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		}
		delay = min(delay*2, p.MaxDelay)
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// IsRetryable reports whether err is a transient connection failure.
// Cancellation, deadlines and an open breaker are final.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	case errors.Is(err, driver.ErrBadConn):
		// database/sql hands out a fresh connection on the next call.
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT), errors.Is(err, syscall.ENETUNREACH):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func withJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	fraction = min(fraction, 1)
	return d + time.Duration(rand.Float64()*fraction*float64(d)) // #nosec G404 -- jitter only
}
