package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TimelordUK/novelreader/internal/config"
)

func TestRetryPolicySucceedsFirstTime(t *testing.T) {
	calls := 0
	err := fastPolicy.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyExhausts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := fastPolicy.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, boom)
}

func TestRetryPolicyStopsOnPermanent(t *testing.T) {
	calls := 0
	bad := errors.New("bad request")
	err := fastPolicy.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(bad)
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, bad)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
}

func TestRetryPolicyHonoursContext(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Do(ctx, func(context.Context) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryPolicyAttemptTimeout(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, AttemptTimeout: 10 * time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = RetryPolicy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestPolicyFromConfig(t *testing.T) {
	rc := config.DefaultConfig().Retry
	assert.Equal(t, DefaultRetryPolicy(), PolicyFromConfig(rc))

	rc.MaxAttempts = 5
	rc.Delay = config.Duration{Duration: 250 * time.Millisecond}
	rc.CallTimeout = config.Duration{Duration: time.Second}
	assert.Equal(t, RetryPolicy{MaxAttempts: 5, Delay: 250 * time.Millisecond, AttemptTimeout: time.Second}, PolicyFromConfig(rc))
}
