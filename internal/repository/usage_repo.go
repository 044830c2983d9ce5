package repository

import (
	"context"

	"gorm.io/gorm"

	"negarai/internal/models"
	"negarai/internal/pkg/utils"
)

// UsageRepository handles usage record database operations.
type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Append inserts a usage record for a completed debit.
func (r *UsageRepository) Append(ctx context.Context, userID, model string, price int) error {
	rec := models.UsageRecord{
		ID:     utils.GenerateUUID(),
		UserID: userID,
		Model:  model,
		Price:  price,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

// FindByUserID returns the most recent usage records for a user.
func (r *UsageRepository) FindByUserID(userID string, limit int) ([]models.UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.UsageRecord
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// CountByUserID counts usage records for a user.
func (r *UsageRepository) CountByUserID(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UsageRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// SumSince returns total tokens spent by all users since the given time,
// used by the daily report job.
func (r *UsageRepository) SumSince(since string) (int64, error) {
	var sum int64
	err := r.db.Model(&models.UsageRecord{}).
		Where("created_at >= ?", since).
		Select("COALESCE(SUM(price), 0)").Scan(&sum).Error
	return sum, err
}
