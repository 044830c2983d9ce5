package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FallbackSequencer performs the debit as separate read / compare-and-swap /
// insert steps when the atomic procedure cannot run. A lost race shows up as
// zero affected rows on the conditional update and is retried, never
// silently ignored; a failed usage insert is compensated by restoring the
// pre-debit balance before the next attempt.
type FallbackSequencer struct {
	balances    BalanceStore
	usage       UsageStore
	alerter     Alerter
	maxAttempts int
	backoff     BackoffPolicy
	logger      *zap.Logger
}

func NewFallbackSequencer(balances BalanceStore, usage UsageStore, alerter Alerter, maxAttempts int, logger *zap.Logger) *FallbackSequencer {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if alerter == nil {
		alerter = NoopAlerter{}
	}
	return &FallbackSequencer{
		balances:    balances,
		usage:       usage,
		alerter:     alerter,
		maxAttempts: maxAttempts,
		backoff:     DefaultBackoff,
		logger:      logger,
	}
}

// Debit runs the fallback sequence and returns the new balance. Business
// rejections stop the loop immediately; transient faults retry with backoff
// up to the attempt cap and then surface wrapped in ErrDebitFailed.
func (s *FallbackSequencer) Debit(ctx context.Context, userID, model string, price int) (int, error) {
	var newBalance int

	err := withRetry(ctx, s.maxAttempts, s.backoff, func(attempt int) error {
		start := time.Now()
		balance, err := s.attempt(ctx, userID, model, price)
		elapsed := time.Since(start)

		if err != nil {
			s.logger.Warn("fallback debit attempt failed",
				zap.String("user_id", userID),
				zap.Int("attempt", attempt),
				zap.Duration("duration", elapsed),
				zap.Error(err))
			// A failed compensation means the balance is already short;
			// retrying would risk a second charge.
			if IsBusinessRejection(err) || errors.Is(err, ErrRollbackFailed) {
				return Permanent(err)
			}
			return err
		}

		s.logger.Info("fallback debit succeeded",
			zap.String("user_id", userID),
			zap.String("model", model),
			zap.Int("price", price),
			zap.Int("attempt", attempt),
			zap.Int("new_balance", balance),
			zap.Duration("duration", elapsed))
		newBalance = balance
		return nil
	})
	if err != nil {
		if IsBusinessRejection(err) || errors.Is(err, ErrRollbackFailed) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrDebitFailed, err)
	}
	return newBalance, nil
}

// attempt is one full pass of the sequence: read, funds check, conditional
// update, usage insert, compensation on partial failure.
func (s *FallbackSequencer) attempt(ctx context.Context, userID, model string, price int) (int, error) {
	tokens, err := s.balances.GetTokens(ctx, userID)
	if err != nil {
		return 0, err
	}

	// Possibly stale, but only redundantly so: a concurrent debit between
	// this check and the CAS is caught at the conditional update and costs
	// one extra round-trip, never a wrong charge.
	if tokens < price {
		return 0, ErrInsufficientTokens
	}

	newBalance := tokens - price
	swapped, err := s.balances.CompareAndSetTokens(ctx, userID, tokens, newBalance)
	if err != nil {
		return 0, fmt.Errorf("conditional update: %w", err)
	}
	if !swapped {
		return 0, fmt.Errorf("conditional update conflict: balance moved from %d", tokens)
	}

	if err := s.usage.Append(ctx, userID, model, price); err != nil {
		if compErr := s.balances.AddTokens(ctx, userID, price); compErr != nil {
			s.logger.Error("compensation failed after usage insert failure",
				zap.String("user_id", userID),
				zap.Int("price", price),
				zap.NamedError("insert_err", err),
				zap.NamedError("compensation_err", compErr))
			s.alerter.Alert(ctx, fmt.Sprintf(
				"billing inconsistency: user %s charged %d tokens without a usage record (insert: %v, compensation: %v)",
				userID, price, err, compErr))
			return 0, fmt.Errorf("%w: %w", ErrRollbackFailed, compErr)
		}
		return 0, fmt.Errorf("usage insert: %w", err)
	}

	return newBalance, nil
}
