package billing

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy computes the wait between retry attempts: exponential growth
// from Base with multiplicative jitter drawn from [JitterMin, JitterMax].
type BackoffPolicy struct {
	Base      time.Duration
	Factor    float64
	JitterMin float64
	JitterMax float64
}

// DefaultBackoff matches the fallback sequencer contract: base 1s, factor 2,
// jitter 60-140%.
var DefaultBackoff = BackoffPolicy{
	Base:      time.Second,
	Factor:    2,
	JitterMin: 0.6,
	JitterMax: 1.4,
}

// Delay returns the wait before the given attempt (attempt counts from 1;
// the delay applies between attempt and attempt+1).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := float64(p.Base) * math.Pow(p.Factor, float64(attempt-1))
	jitter := p.JitterMin + rand.Float64()*(p.JitterMax-p.JitterMin)
	return time.Duration(backoff * jitter)
}

// permanentError marks an error that must stop the retry loop immediately.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so withRetry surfaces it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// withRetry runs op up to maxAttempts times, sleeping per policy between
// failed attempts. An error wrapped with Permanent stops the loop at once;
// context cancellation does the same. Returns the last error unwrapped from
// any Permanent marker.
func withRetry(ctx context.Context, maxAttempts int, policy BackoffPolicy, op func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op(attempt)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Delay(attempt)):
		}
	}
	return lastErr
}
