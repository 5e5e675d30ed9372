package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"mise/models"
)

// Line is one required ingredient of a recipe.
type Line struct {
	IngredientID uint
	Quantity     decimal.Decimal
}

// CompositionLine is a composition row joined with its ingredient metadata.
type CompositionLine struct {
	IngredientID   uint            `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// CompositionStore holds the (ingredient, quantity) rows of every recipe.
type CompositionStore struct {
	db *gorm.DB
}

func (s *CompositionStore) with(tx *gorm.DB) *CompositionStore {
	return &CompositionStore{db: tx}
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrEmptyComposition
	}
	seen := make(map[uint]struct{}, len(lines))
	for i, line := range lines {
		field := fmt.Sprintf("ingredients[%d]", i)
		if line.IngredientID == 0 {
			return invalid(field+".ingredient_id", "is required")
		}
		if _, dup := seen[line.IngredientID]; dup {
			return invalid(field+".ingredient_id", fmt.Sprintf("repeats ingredient %d", line.IngredientID))
		}
		seen[line.IngredientID] = struct{}{}
		if err := checkPositive(field+".quantity", line.Quantity, QuantityScale); err != nil {
			return err
		}
	}
	return nil
}

func lineIngredientIDs(lines []Line) []uint {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.IngredientID)
	}
	return ids
}

// Create inserts the whole composition or nothing. Referenced ingredient rows
// are locked so they cannot be deleted before the insert commits.
func (s *CompositionStore) Create(ctx context.Context, recipeID uint, lines []Line) error {
	if err := validateLines(lines); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := lockIngredients(tx, lineIngredientIDs(lines))
		if err != nil {
			return err
		}

		rows := make([]models.RecipeIngredient, 0, len(lines))
		for i, line := range lines {
			if _, ok := found[line.IngredientID]; !ok {
				return invalid(fmt.Sprintf("ingredients[%d].ingredient_id", i),
					fmt.Sprintf("references unknown ingredient %d", line.IngredientID))
			}
			rows = append(rows, models.RecipeIngredient{
				RecipeID:     recipeID,
				IngredientID: line.IngredientID,
				Quantity:     line.Quantity,
			})
		}
		return tx.Create(&rows).Error
	})
	return classify("create composition", err)
}

// Lines returns the raw composition rows in composition order.
func (s *CompositionStore) Lines(ctx context.Context, recipeID uint) ([]models.RecipeIngredient, error) {
	var rows []models.RecipeIngredient
	if err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, storageError("load composition", err)
	}
	return rows, nil
}

// View returns the composition joined with ingredient names and units. An
// unknown recipe yields an empty slice.
func (s *CompositionStore) View(ctx context.Context, recipeID uint) ([]CompositionLine, error) {
	lines := []CompositionLine{}
	if err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("recipe_ingredients.ingredient_id AS ingredient_id, " +
			"COALESCE(ingredients.name, '') AS ingredient_name, " +
			"COALESCE(ingredients.unit, '') AS unit, " +
			"recipe_ingredients.quantity AS quantity").
		Joins("LEFT JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id = ?", recipeID).
		Order("recipe_ingredients.id asc").
		Scan(&lines).Error; err != nil {
		return nil, storageError("load composition view", err)
	}
	return lines, nil
}

// DeleteForRecipe removes every composition row of the recipe and reports
// how many were removed.
func (s *CompositionStore) DeleteForRecipe(ctx context.Context, recipeID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{})
	if res.Error != nil {
		return 0, storageError("delete composition", res.Error)
	}
	return res.RowsAffected, nil
}
