package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"negarai/internal/billing"
	"negarai/internal/models"
)

// AccountRepository handles all account database operations, including the
// two debit paths the billing core runs on: the consume_tokens stored
// procedure and the conditional-update primitives of the fallback sequencer.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID finds an account by user ID.
func (r *AccountRepository) FindByID(userID string) (*models.Account, error) {
	var acc models.Account
	if err := r.db.Where("id = ?", userID).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(acc *models.Account) error {
	return r.db.Create(acc).Error
}

// FindOrCreate returns the account for a user, materializing an empty row on
// first touch. Identity lives in the auth service; the account row only
// carries the balance and profile.
func (r *AccountRepository) FindOrCreate(userID, email string) (*models.Account, error) {
	acc, err := r.FindByID(userID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	acc = &models.Account{
		ID:     userID,
		Email:  email,
		Plan:   "free",
		Theme:  "dark",
		Status: "active",
	}
	if err := r.Create(acc); err != nil {
		// Lost a race with a concurrent first request.
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == 1062 {
			return r.FindByID(userID)
		}
		return nil, err
	}
	return acc, nil
}

// UpdateProfile updates mutable profile fields.
func (r *AccountRepository) UpdateProfile(userID string, updates map[string]interface{}) error {
	allowed := map[string]bool{"name": true, "theme": true, "plan": true, "status": true}
	filtered := make(map[string]interface{}, len(updates))
	for k, v := range updates {
		if allowed[strings.TrimSpace(k)] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return r.db.Model(&models.Account{}).Where("id = ?", userID).Updates(filtered).Error
}

// ConsumeTokens invokes the consume_tokens stored procedure: the atomic
// debit path. Business rejections come back as distinct errors; anything
// infrastructural maps to ErrProcedureUnavailable so the caller can fall
// back instead of treating it as a denied charge.
func (r *AccountRepository) ConsumeTokens(ctx context.Context, userID, model string, price int) (int, error) {
	var row struct {
		NewBalance int `gorm:"column:new_balance"`
	}
	err := r.db.WithContext(ctx).
		Raw("CALL consume_tokens(?, ?, ?)", userID, model, price).
		Scan(&row).Error
	if err != nil {
		return 0, mapProcedureError(err)
	}
	return row.NewBalance, nil
}

func mapProcedureError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch {
		case strings.Contains(myErr.Message, "ACCOUNT_NOT_FOUND"):
			return billing.ErrAccountNotFound
		case strings.Contains(myErr.Message, "INSUFFICIENT_TOKENS"):
			return billing.ErrInsufficientTokens
		case myErr.Number == 1305: // PROCEDURE does not exist
			return billing.ErrProcedureUnavailable
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return billing.ErrProcedureUnavailable
	}
	// Connectivity and driver failures are infra, not business outcomes.
	return billing.ErrProcedureUnavailable
}

// GetTokens reads the current token balance for a user.
func (r *AccountRepository) GetTokens(ctx context.Context, userID string) (int, error) {
	var acc models.Account
	err := r.db.WithContext(ctx).Select("tokens").Where("id = ?", userID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, billing.ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return acc.Tokens, nil
}

// CompareAndSetTokens sets tokens to newTokens only if the stored value
// still equals oldTokens. Returns false when another writer got there first.
func (r *AccountRepository) CompareAndSetTokens(ctx context.Context, userID string, oldTokens, newTokens int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND tokens = ?", userID, oldTokens).
		Update("tokens", newTokens)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AddTokens adds (or with a negative delta, subtracts) tokens uncondition-
// ally. Used for recharge crediting and for fallback compensation.
func (r *AccountRepository) AddTokens(ctx context.Context, userID string, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", userID).
		Update("tokens", gorm.Expr("tokens + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return billing.ErrAccountNotFound
	}
	return nil
}
