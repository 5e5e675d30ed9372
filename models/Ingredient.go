package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a raw stock item tracked by quantity-on-hand.
type Ingredient struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"quantity"`
	Unit      string          `gorm:"size:50" json:"unit"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
