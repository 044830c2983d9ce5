package billing

import "sync"

// PendingBalance is the two-phase local view of a balance during one
// consumption: the value before the debit and the tentative value shown
// while the server call is in flight.
type PendingBalance struct {
	Before    int
	Tentative int
}

// ApplyOutcome is the pure reducer from a pending balance and a debit
// outcome to the final local balance. On success the server-reported value
// wins unconditionally, even when it coincides with the tentative value; on
// failure the pre-debit value is restored.
func ApplyOutcome(pending PendingBalance, out Outcome) int {
	if out.Success {
		return out.NewBalance
	}
	return pending.Before
}

// BalanceLedger holds the last known local balance per user: the value the
// UI shows between server round-trips. It is a cache for pre-flight checks
// and optimistic updates, never an authority.
type BalanceLedger struct {
	mu       sync.RWMutex
	balances map[string]int
}

func NewBalanceLedger() *BalanceLedger {
	return &BalanceLedger{balances: make(map[string]int)}
}

// Get returns the cached balance and whether one is known.
func (l *BalanceLedger) Get(userID string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.balances[userID]
	return v, ok
}

// Set stores the balance for a user.
func (l *BalanceLedger) Set(userID string, balance int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = balance
}

// BeginDebit applies the optimistic decrement and returns the pending pair.
// Returns ok=false when no balance is cached for the user, in which case no
// optimistic update happens (there is nothing to show or revert).
func (l *BalanceLedger) BeginDebit(userID string, price int) (PendingBalance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	before, ok := l.balances[userID]
	if !ok {
		return PendingBalance{}, false
	}
	pending := PendingBalance{Before: before, Tentative: before - price}
	l.balances[userID] = pending.Tentative
	return pending, true
}

// Resolve replaces the tentative value with the reduced final balance.
func (l *BalanceLedger) Resolve(userID string, pending PendingBalance, out Outcome) int {
	final := ApplyOutcome(pending, out)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = final
	return final
}
