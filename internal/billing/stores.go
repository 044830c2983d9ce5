package billing

import "context"

// Outcome is the result of one consumption call. Exactly one of the two
// shapes crosses the orchestrator boundary: success with the authoritative
// server balance, or failure with an error from the taxonomy in errors.go.
type Outcome struct {
	Success    bool
	NewBalance int
	Err        error
}

// BalanceRPC is the atomic debit path: one indivisible server-side operation
// that checks funds, decrements, and records usage. Implemented by the
// account repository over the consume_tokens stored procedure.
type BalanceRPC interface {
	ConsumeTokens(ctx context.Context, userID, model string, price int) (int, error)
}

// BalanceStore exposes the separate read / conditional-write operations the
// fallback sequencer runs on when the atomic path is unavailable.
type BalanceStore interface {
	GetTokens(ctx context.Context, userID string) (int, error)
	CompareAndSetTokens(ctx context.Context, userID string, oldTokens, newTokens int) (bool, error)
	AddTokens(ctx context.Context, userID string, delta int) error
}

// UsageStore appends the audit record for a completed debit.
type UsageStore interface {
	Append(ctx context.Context, userID, model string, price int) error
}

// Alerter receives critical billing inconsistencies that need a human, such
// as a failed compensation after a partial debit.
type Alerter interface {
	Alert(ctx context.Context, message string)
}

// NoopAlerter discards alerts.
type NoopAlerter struct{}

func (NoopAlerter) Alert(ctx context.Context, message string) {}
