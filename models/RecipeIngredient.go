package models

import (
	"github.com/shopspring/decimal"
)

type RecipeIngredient struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RecipeID     uint            `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint            `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index" json:"ingredient_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity"` // required per sale
}
