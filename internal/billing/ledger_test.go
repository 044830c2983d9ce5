package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOutcome(t *testing.T) {
	pending := PendingBalance{Before: 10, Tentative: 6}

	assert.Equal(t, 6, ApplyOutcome(pending, Outcome{Success: true, NewBalance: 6}))
	assert.Equal(t, 7, ApplyOutcome(pending, Outcome{Success: true, NewBalance: 7}),
		"server value wins even when it diverges from the tentative one")
	assert.Equal(t, 10, ApplyOutcome(pending, Outcome{Err: ErrDebitFailed}),
		"failure restores the pre-debit value")
}

func TestBalanceLedger_BeginAndResolve(t *testing.T) {
	l := NewBalanceLedger()

	_, ok := l.BeginDebit("u1", 4)
	assert.False(t, ok, "no optimistic update without a known balance")

	l.Set("u1", 10)
	pending, ok := l.BeginDebit("u1", 4)
	require.True(t, ok)
	assert.Equal(t, PendingBalance{Before: 10, Tentative: 6}, pending)

	mid, _ := l.Get("u1")
	assert.Equal(t, 6, mid, "tentative value visible while in flight")

	final := l.Resolve("u1", pending, Outcome{Err: ErrDebitFailed})
	assert.Equal(t, 10, final)

	after, _ := l.Get("u1")
	assert.Equal(t, 10, after)
}
