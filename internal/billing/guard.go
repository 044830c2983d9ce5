package billing

import (
	"sync"
	"time"
)

// consumeGuard serializes consumption calls per user. A slot that was never
// released is force-expired after holdTimeout so an abandoned call (closed
// tab, killed client) cannot wedge the user's session forever.
type consumeGuard struct {
	mu          sync.Mutex
	inFlight    map[string]guardClaim
	holdTimeout time.Duration
	seq         uint64
	now         func() time.Time
}

// guardClaim is one held slot. The token identifies the owner so a call
// whose claim was taken over cannot release the successor's claim.
type guardClaim struct {
	token uint64
	since time.Time
}

func newConsumeGuard(holdTimeout time.Duration) *consumeGuard {
	if holdTimeout <= 0 {
		holdTimeout = 5 * time.Second
	}
	return &consumeGuard{
		inFlight:    make(map[string]guardClaim),
		holdTimeout: holdTimeout,
		now:         time.Now,
	}
}

// tryAcquire claims the slot for userID and returns the ownership token. A
// stale claim past the hold timeout is taken over rather than honored.
func (g *consumeGuard) tryAcquire(userID string) (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if claim, held := g.inFlight[userID]; held && g.now().Sub(claim.since) < g.holdTimeout {
		return 0, false
	}
	g.seq++
	g.inFlight[userID] = guardClaim{token: g.seq, since: g.now()}
	return g.seq, true
}

// release frees the slot only while token still owns it. A debit can outlive
// the hold timeout (the atomic deadline alone is longer), and its late
// release must not clear a claim that has since been taken over.
func (g *consumeGuard) release(userID string, token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if claim, held := g.inFlight[userID]; held && claim.token == token {
		delete(g.inFlight, userID)
	}
}
