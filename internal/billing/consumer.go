package billing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Consumer is the single entry point the HTTP layer uses to charge tokens.
// It validates, applies the optimistic local update, drives the atomic path
// with fallback, and reconciles the local balance against the server value.
//
// One consumption call moves through: Idle -> Validating -> Debiting(Atomic)
// -> Reconciled, or Debiting(Fallback) -> Reconciled, or RolledBack. Both
// terminal states release the per-user guard.
type Consumer struct {
	atomic   *AtomicDebitor
	fallback *FallbackSequencer
	breaker  *Breaker
	guard    *consumeGuard
	ledger   *BalanceLedger
	logger   *zap.Logger
}

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithGuardTimeout overrides the 5s forced-release window of the in-flight
// guard.
func WithGuardTimeout(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.guard = newConsumeGuard(d) }
}

// WithBreaker overrides the default breaker in front of the atomic path.
func WithBreaker(b *Breaker) ConsumerOption {
	return func(c *Consumer) { c.breaker = b }
}

func NewConsumer(atomic *AtomicDebitor, fallback *FallbackSequencer, logger *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		atomic:   atomic,
		fallback: fallback,
		breaker:  NewBreaker(3, 30*time.Second),
		guard:    newConsumeGuard(5 * time.Second),
		ledger:   NewBalanceLedger(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ledger exposes the local balance cache so the HTTP layer can seed it from
// authoritative reads (login, wallet view, recharge).
func (c *Consumer) Ledger() *BalanceLedger {
	return c.ledger
}

// Consume charges price tokens from userID for one generation with model.
// The returned Outcome is always one of two shapes: success with the
// server-reported balance, or failure with a taxonomy error. It never
// panics past this boundary.
func (c *Consumer) Consume(ctx context.Context, userID, model string, price int) Outcome {
	// Validating
	if userID == "" || model == "" || price <= 0 {
		return Outcome{Err: ErrInvalidParameters}
	}

	guardToken, acquired := c.guard.tryAcquire(userID)
	if !acquired {
		return Outcome{Err: ErrConsumeInFlight}
	}
	defer c.guard.release(userID, guardToken)

	// Pre-flight short-circuit on the cached balance. A UX optimization
	// only: the server-side check remains the authority.
	if cached, known := c.ledger.Get(userID); known && cached < price {
		return Outcome{Err: ErrInsufficientTokens}
	}

	// Optimistic local update, reverted exactly once on failure via the
	// reducer in Resolve.
	pending, optimistic := c.ledger.BeginDebit(userID, price)

	out := c.debit(ctx, userID, model, price)

	if optimistic {
		final := c.ledger.Resolve(userID, pending, out)
		if out.Success && final != pending.Tentative {
			c.logger.Info("local balance reconciled against server value",
				zap.String("user_id", userID),
				zap.Int("tentative", pending.Tentative),
				zap.Int("server", final))
		}
	} else if out.Success {
		c.ledger.Set(userID, out.NewBalance)
	}

	return out
}

// debit drives the atomic path, routing to the fallback sequencer on
// unavailability (or straight there while the breaker is open).
func (c *Consumer) debit(ctx context.Context, userID, model string, price int) Outcome {
	if c.breaker.Allow() {
		newBalance, err := c.atomic.Debit(ctx, userID, model, price)
		if err == nil {
			c.breaker.Success()
			return Outcome{Success: true, NewBalance: newBalance}
		}
		if !errors.Is(err, ErrProcedureUnavailable) {
			return Outcome{Err: err}
		}
		c.breaker.Failure()
	} else {
		c.logger.Warn("atomic debit path skipped, breaker open",
			zap.String("user_id", userID))
	}

	newBalance, err := c.fallback.Debit(ctx, userID, model, price)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Success: true, NewBalance: newBalance}
}
