package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffPolicy_DelayBounds(t *testing.T) {
	p := DefaultBackoff
	for attempt := 1; attempt <= 3; attempt++ {
		base := time.Duration(float64(time.Second) * float64(int(1)<<uint(attempt-1)))
		for i := 0; i < 50; i++ {
			d := p.Delay(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(float64(base)*0.6))
			assert.LessOrEqual(t, d, time.Duration(float64(base)*1.4))
		}
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, fastBackoff, func(attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustionReturnsLastError(t *testing.T) {
	last := errors.New("still broken")
	calls := 0
	err := withRetry(context.Background(), 3, fastBackoff, func(int) error {
		calls++
		return last
	})
	require.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, fastBackoff, func(int) error {
		calls++
		return Permanent(ErrInsufficientTokens)
	})
	require.ErrorIs(t, err, ErrInsufficientTokens)
	assert.Equal(t, 1, calls)

	// the permanent marker must not leak to callers
	var perm *permanentError
	assert.False(t, errors.As(err, &perm))
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 3, BackoffPolicy{Base: time.Hour, Factor: 2, JitterMin: 1, JitterMax: 1}, func(int) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "no further attempts after cancellation")
}
