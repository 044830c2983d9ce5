package billing

import (
	"context"
	"errors"
	"sync"
)

// fakeRPC is a scripted atomic debit path.
type fakeRPC struct {
	mu    sync.Mutex
	calls int
	// fn decides the response; when nil the RPC is permanently unavailable.
	fn func(call int, userID, model string, price int) (int, error)
	// entered is closed on first call when non-nil, for overlap tests.
	entered chan struct{}
	// block, when non-nil, is waited on before returning.
	block chan struct{}
}

func (f *fakeRPC) ConsumeTokens(ctx context.Context, userID, model string, price int) (int, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	entered := f.entered
	f.entered = nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return 0, ErrProcedureUnavailable
		}
	}
	if f.fn == nil {
		return 0, ErrProcedureUnavailable
	}
	return f.fn(call, userID, model, price)
}

func (f *fakeRPC) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memoryStore is an in-memory BalanceStore + UsageStore with scriptable
// failures, mirroring the shape of the real repositories.
type memoryStore struct {
	mu       sync.Mutex
	tokens   map[string]int
	usage    []usageEntry
	casCalls int
	// forceConflicts makes the first n CAS calls report zero rows affected.
	forceConflicts int
	// failInserts makes the first n usage inserts fail.
	failInserts int
	// failCompensations makes the first n AddTokens calls fail.
	failCompensations int
}

type usageEntry struct {
	userID string
	model  string
	price  int
}

func newMemoryStore(balances map[string]int) *memoryStore {
	m := &memoryStore{tokens: make(map[string]int)}
	for k, v := range balances {
		m.tokens[k] = v
	}
	return m
}

func (m *memoryStore) GetTokens(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.tokens[userID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return v, nil
}

func (m *memoryStore) CompareAndSetTokens(ctx context.Context, userID string, oldTokens, newTokens int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casCalls++
	if m.forceConflicts > 0 {
		m.forceConflicts--
		return false, nil
	}
	if m.tokens[userID] != oldTokens {
		return false, nil
	}
	m.tokens[userID] = newTokens
	return true, nil
}

func (m *memoryStore) AddTokens(ctx context.Context, userID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCompensations > 0 {
		m.failCompensations--
		return errors.New("simulated compensation failure")
	}
	if _, ok := m.tokens[userID]; !ok {
		return ErrAccountNotFound
	}
	m.tokens[userID] += delta
	return nil
}

func (m *memoryStore) Append(ctx context.Context, userID, model string, price int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInserts > 0 {
		m.failInserts--
		return errors.New("simulated insert failure")
	}
	m.usage = append(m.usage, usageEntry{userID: userID, model: model, price: price})
	return nil
}

func (m *memoryStore) balance(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[userID]
}

func (m *memoryStore) usageCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.usage {
		if u.userID == userID {
			n++
		}
	}
	return n
}

// recordingAlerter captures critical alerts.
type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) Alert(ctx context.Context, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

// fastBackoff keeps test retries quick.
var fastBackoff = BackoffPolicy{Base: 1, Factor: 2, JitterMin: 1, JitterMax: 1}
