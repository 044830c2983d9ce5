package models

import "time"

// Payment status values.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// PaymentReport maps to the `payment_reports` table.
// One row per recharge attempt through the Zarinpal gateway.
type PaymentReport struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   string    `gorm:"column:order_id;size:100;uniqueIndex" json:"order_id"`
	UserID    string    `gorm:"column:user_id;size:100;index" json:"user_id"`
	Amount    int       `gorm:"column:amount" json:"amount"`
	Tokens    int       `gorm:"column:tokens" json:"tokens"`
	Authority string    `gorm:"column:authority;size:200;index" json:"authority"`
	RefID     string    `gorm:"column:ref_id;size:200" json:"ref_id"`
	Gateway   string    `gorm:"column:gateway;size:50" json:"gateway"`
	Status    string    `gorm:"column:status;size:50;default:'pending'" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PaymentReport) TableName() string {
	return "payment_reports"
}
