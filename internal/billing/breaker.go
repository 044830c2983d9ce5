package billing

import (
	"sync"
	"time"
)

// Breaker is a small circuit breaker guarding the atomic debit path. After a
// run of consecutive unavailability results it opens for a cooldown window,
// during which callers skip straight to the fallback sequencer.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openedAt  time.Time
	now       func() time.Time
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures and stays open for cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether the atomic path should be attempted. Once the
// cooldown has elapsed the breaker half-opens: the next call goes through
// and its result decides whether the breaker closes or re-opens.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// half-open probe
		return true
	}
	return false
}

// Success records a successful atomic call and closes the breaker.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Failure records an unavailability result.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.openedAt = b.now()
	}
}
