package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is a sellable dish. Its composition lives in RecipeIngredient rows.
type Recipe struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
