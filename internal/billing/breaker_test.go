package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	assert.True(t, b.Allow())
	b.Failure()
	assert.True(t, b.Allow())
	b.Failure()
	assert.True(t, b.Allow())
	b.Failure()

	assert.False(t, b.Allow(), "open after three consecutive failures")
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	b.Failure()
	b.Success()
	b.Failure()
	assert.True(t, b.Allow(), "success broke the failure run")
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	b.Failure()
	assert.False(t, b.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow(), "half-open probe allowed after cooldown")

	b.Failure()
	assert.False(t, b.Allow(), "probe failure re-opens")

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	b.Success()
	assert.True(t, b.Allow(), "probe success closes the breaker")
}
