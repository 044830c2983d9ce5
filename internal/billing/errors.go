package billing

import "errors"

// Debit error taxonomy. The split matters: business rejections are final and
// never retried, while ErrProcedureUnavailable is an infra signal that routes
// the request to the fallback sequencer.
var (
	// ErrInvalidParameters: caller bug, rejected before any network call.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInsufficientTokens: balance below price. A business outcome.
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// ErrAccountNotFound: no account row for the user. Data integrity issue.
	ErrAccountNotFound = errors.New("account not found")

	// ErrProcedureUnavailable: the atomic debit path itself cannot run
	// (undefined procedure, connectivity, deadline). Triggers the fallback.
	ErrProcedureUnavailable = errors.New("debit procedure unavailable")

	// ErrDebitFailed: the fallback sequencer exhausted its attempts.
	ErrDebitFailed = errors.New("debit failed")

	// ErrRollbackFailed: compensation after a partial debit failed. The
	// account may hold an unrecorded charge; requires manual reconciliation.
	ErrRollbackFailed = errors.New("rollback failed")

	// ErrConsumeInFlight: another consumption call for the same user is
	// already running.
	ErrConsumeInFlight = errors.New("consumption already in flight")
)

// IsBusinessRejection reports whether err is a final business outcome that
// must not be retried.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ErrInsufficientTokens) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrInvalidParameters)
}
