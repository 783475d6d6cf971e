package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TimelordUK/novelreader/internal/config"
)

// RetryPolicy retries transport failures a fixed number of times with a
// fixed delay between attempts
type RetryPolicy struct {
	MaxAttempts    int
	Delay          time.Duration
	AttemptTimeout time.Duration // zero means no per-attempt deadline
}

// DefaultRetryPolicy is three attempts one second apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Delay:          time.Second,
		AttemptTimeout: 5 * time.Second,
	}
}

// PolicyFromConfig builds a policy from the [retry] table
func PolicyFromConfig(rc config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    rc.MaxAttempts,
		Delay:          rc.Delay.Duration,
		AttemptTimeout: rc.CallTimeout.Duration,
	}
}

// Do runs op until it succeeds, returns a Permanent error, or the attempts
// run out. Exhaustion returns ErrRetriesExhausted wrapping the last failure.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 1; i <= attempts; i++ {
		err := p.attempt(ctx, op)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ctx.Err(), last)
		}
		log.Warningf("attempt %d/%d failed: %s", i, attempts, err)

		if i < attempts && p.Delay > 0 {
			t := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("%w: %w", ctx.Err(), last)
			case <-t.C:
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, last)
}

func (p RetryPolicy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return op(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return op(actx)
}
