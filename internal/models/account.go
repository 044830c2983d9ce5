package models

import "time"

// Account maps to the `accounts` table.
// Primary key is the user ID issued at signup, stored as string.
type Account struct {
	ID        string    `gorm:"column:id;primaryKey;size:100" json:"id"`
	Email     string    `gorm:"column:email;size:300;uniqueIndex" json:"email"`
	Name      string    `gorm:"column:name;size:300" json:"name"`
	Tokens    int       `gorm:"column:tokens;default:0" json:"tokens"`
	Plan      string    `gorm:"column:plan;size:50;default:'free'" json:"plan"`
	Theme     string    `gorm:"column:theme;size:50;default:'dark'" json:"theme"`
	Status    string    `gorm:"column:status;size:50;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
