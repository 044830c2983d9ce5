package models

// ModelPrice maps to the `model_prices` table.
// Token price charged per generation request, keyed by model name.
type ModelPrice struct {
	Model    string `gorm:"column:model;primaryKey;size:100" json:"model"`
	Provider string `gorm:"column:provider;size:50" json:"provider"`
	Price    int    `gorm:"column:price" json:"price"`
	Kind     string `gorm:"column:kind;size:20" json:"kind"` // text, image, video
	Enabled  bool   `gorm:"column:enabled;default:true" json:"enabled"`
}

func (ModelPrice) TableName() string {
	return "model_prices"
}
