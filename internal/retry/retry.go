// Package retry implements the bounded exponential backoff applied to
// provider calls. The policy is a plain value so any operation can consume
// it, independent of the transport that produced the failure.
package retry

import (
	"context"
	"math/rand"
	"time"

	apperrors "github.com/thib420/AI-Table-sub000/internal/errors"
)

// Defaults applied where a Policy field is zero
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMultiplier  = 3
	DefaultMaxDelay    = 30 * time.Second
)

// Policy describes a bounded exponential backoff. Waits grow by Multiplier
// per attempt starting from BaseDelay and never exceed MaxDelay. When the
// failure carries a provider retry-after hint larger than the computed wait,
// the hint wins.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
	MaxDelay    time.Duration
	Jitter      time.Duration
}

// Delay returns the wait before the next try after `attempt` tries have
// failed. Attempt counts from 1.
func (p Policy) Delay(attempt int, err error) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	delay := base
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(multiplier)
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}

	if hint := apperrors.RetryAfterHint(err); hint > delay {
		delay = hint
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return delay
}

// Do runs op, retrying transient failures until the attempt budget is spent.
// Rate-limited and transport errors are retried; everything else returns
// immediately. The last error is returned when retries exhaust.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleepContext(ctx, p.Delay(attempt, lastErr)); err != nil {
			return err
		}
	}
	return lastErr
}

func retryable(err error) bool {
	return apperrors.IsRateLimited(err) || apperrors.IsTransport(err)
}

// sleepContext waits for d or until the context is done, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
