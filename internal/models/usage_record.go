package models

import "time"

// UsageRecord maps to the `usage_records` table.
// Append-only: one row per successful token debit, never updated.
type UsageRecord struct {
	ID        string    `gorm:"column:id;primaryKey;size:100" json:"id"`
	UserID    string    `gorm:"column:user_id;size:100;index" json:"user_id"`
	Model     string    `gorm:"column:model;size:100" json:"model"`
	Price     int       `gorm:"column:price" json:"price"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
