package repository

import (
	"gorm.io/gorm"

	"negarai/internal/models"
)

// PriceRepository handles model price lookups.
type PriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// FindByModel returns the price entry for an enabled model.
func (r *PriceRepository) FindByModel(model string) (*models.ModelPrice, error) {
	var price models.ModelPrice
	if err := r.db.Where("model = ? AND enabled = ?", model, true).First(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

// FindAll returns all enabled model prices.
func (r *PriceRepository) FindAll() ([]models.ModelPrice, error) {
	var prices []models.ModelPrice
	err := r.db.Where("enabled = ?", true).Order("provider, model").Find(&prices).Error
	return prices, err
}
