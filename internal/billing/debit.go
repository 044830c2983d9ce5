package billing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// AtomicDebitor wraps the atomic debit RPC with the fixed execution deadline.
// A call that outlives the deadline counts as unavailable, never as a hung
// success: the caller falls back rather than reporting a denied charge.
type AtomicDebitor struct {
	rpc     BalanceRPC
	timeout time.Duration
	logger  *zap.Logger
}

func NewAtomicDebitor(rpc BalanceRPC, timeout time.Duration, logger *zap.Logger) *AtomicDebitor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AtomicDebitor{rpc: rpc, timeout: timeout, logger: logger}
}

// Debit runs the atomic debit and returns the new balance. Errors are from
// the billing taxonomy; anything that is not a business rejection surfaces
// as ErrProcedureUnavailable.
func (d *AtomicDebitor) Debit(ctx context.Context, userID, model string, price int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	newBalance, err := d.rpc.ConsumeTokens(ctx, userID, model, price)
	elapsed := time.Since(start)

	if err != nil {
		if IsBusinessRejection(err) {
			d.logger.Info("atomic debit rejected",
				zap.String("user_id", userID),
				zap.String("model", model),
				zap.Int("price", price),
				zap.Duration("duration", elapsed),
				zap.Error(err))
			return 0, err
		}
		if !errors.Is(err, ErrProcedureUnavailable) {
			err = errors.Join(ErrProcedureUnavailable, err)
		}
		d.logger.Warn("atomic debit unavailable",
			zap.String("user_id", userID),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return 0, err
	}

	d.logger.Info("atomic debit succeeded",
		zap.String("user_id", userID),
		zap.String("model", model),
		zap.Int("price", price),
		zap.Int("new_balance", newBalance),
		zap.Duration("duration", elapsed))
	return newBalance, nil
}
