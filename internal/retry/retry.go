// Package retry wraps idempotent remote reads with bounded
// exponential-backoff retry. The wrapper knows nothing about the operation
// it guards; the caller supplies a classifier that decides which errors
// are transient.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy is an immutable backoff configuration.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// OnRetry fires once per backoff actually taken, for metrics. The
	// attempt that exhausts the budget does not count as a retry.
	OnRetry func()

	// Sleep is injectable for tests. Nil means sleep on the real clock,
	// aborting early if ctx is cancelled.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the tuning used against the bills store: worst case
// 1s + 2s + 4s of delay, well inside the 30s request budget.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     32 * time.Second,
	}
}

// Delay returns the backoff before retry number attempt (starting at 0):
// min(InitialDelay * 2^attempt, MaxDelay). Pure, no jitter, so tests can
// assert exact scheduling.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op, retrying under the policy while retryable(err) holds.
// Non-retryable errors propagate immediately with zero delay. After
// MaxRetries are exhausted the last error is returned.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt >= p.MaxRetries {
			return zero, lastErr
		}

		if p.OnRetry != nil {
			p.OnRetry()
		}
		delay := p.Delay(attempt)
		slog.Warn("transient error, retrying",
			"error", err,
			"attempt", attempt+1,
			"max_retries", p.MaxRetries,
			"delay", delay,
		)
		if err := p.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}
