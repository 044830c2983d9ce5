package repository

import (
	"time"

	"gorm.io/gorm"

	"negarai/internal/models"
)

// PaymentRepository handles payment report database operations.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment report.
func (r *PaymentRepository) Create(payment *models.PaymentReport) error {
	return r.db.Create(payment).Error
}

// FindByAuthority returns a payment by gateway authority.
func (r *PaymentRepository) FindByAuthority(authority string) (*models.PaymentReport, error) {
	var payment models.PaymentReport
	if err := r.db.Where("authority = ?", authority).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByOrderID returns a payment by order ID.
func (r *PaymentRepository) FindByOrderID(orderID string) (*models.PaymentReport, error) {
	var payment models.PaymentReport
	if err := r.db.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByUserID returns payments for a specific user.
func (r *PaymentRepository) FindByUserID(userID string, limit int) ([]models.PaymentReport, error) {
	if limit <= 0 {
		limit = 50
	}
	var payments []models.PaymentReport
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&payments).Error
	return payments, err
}

// MarkPaid transitions a pending payment to paid, recording the gateway ref.
// Conditional on the current status so a replayed callback cannot credit twice.
func (r *PaymentRepository) MarkPaid(orderID, refID string) (bool, error) {
	res := r.db.Model(&models.PaymentReport{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status": models.PaymentPaid,
			"ref_id": refID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkFailed transitions a pending payment to failed.
func (r *PaymentRepository) MarkFailed(orderID string) error {
	return r.db.Model(&models.PaymentReport{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentPending).
		Update("status", models.PaymentFailed).Error
}

// ExpirePending fails pending payments older than the cutoff. The gateway
// never calls back for abandoned payments, so a scheduled sweep closes them.
func (r *PaymentRepository) ExpirePending(olderThan time.Time) (int64, error) {
	res := r.db.Model(&models.PaymentReport{}).
		Where("status = ? AND created_at < ?", models.PaymentPending, olderThan).
		Update("status", models.PaymentFailed)
	return res.RowsAffected, res.Error
}

// SumPaidByUserID returns total paid recharge amount for a user.
func (r *PaymentRepository) SumPaidByUserID(userID string) (int64, error) {
	var sum int64
	err := r.db.Model(&models.PaymentReport{}).
		Where("user_id = ? AND status = ?", userID, models.PaymentPaid).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}
