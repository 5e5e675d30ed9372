package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "mise/internal/log"
	"mise/models"
)

const (
	saleMessage     = "sale recorded and stock updated"
	maxSaleAttempts = 2
)

// errLockSetChanged reports that the composition was replaced between the
// lock plan and the transaction, so the held keys may not cover every line.
var errLockSetChanged = fmt.Errorf("%w: recipe composition changed during sale", ErrConflict)

// StockMovement is the effect of a sale on one ingredient.
type StockMovement struct {
	IngredientID uint            `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Consumed     decimal.Decimal `json:"consumed"`
	Remaining    decimal.Decimal `json:"remaining"`
}

// SaleResult describes a committed sale.
type SaleResult struct {
	SaleID     string          `json:"sale_id"`
	RecipeID   uint            `json:"recipe_id"`
	RecipeName string          `json:"recipe_name"`
	Price      decimal.Decimal `json:"price"`
	Movements  []StockMovement `json:"movements"`
	SoldAt     time.Time       `json:"sold_at"`
	Message    string          `json:"message"`
}

// Engine performs the check-then-decrement of a sale as one isolated unit.
//
// Isolation comes from two layers: the locker serializes sales that share a
// recipe or ingredient inside (or, with Redis, across) processes, and the
// transaction re-reads every ingredient row FOR UPDATE so databases with row
// locks stay consistent even between instances that share no locker.
type Engine struct {
	db           *gorm.DB
	guard        *guard
	compositions *CompositionStore
	now          func() time.Time
}

// Sell fulfils one sale of recipeID or leaves every ingredient untouched.
func (e *Engine) Sell(ctx context.Context, recipeID uint) (SaleResult, error) {
	if recipeID == 0 {
		return SaleResult{}, ErrRecipeNotFound
	}

	var (
		result SaleResult
		err    error
	)
	for attempt := 1; attempt <= maxSaleAttempts; attempt++ {
		result, err = e.sellOnce(ctx, recipeID)
		if !errors.Is(err, errLockSetChanged) {
			break
		}
		applog.Debug(ctx, "composition changed before lock, replanning sale", "recipe_id", recipeID, "attempt", attempt)
	}
	if err != nil {
		return SaleResult{}, err
	}

	applog.Info(ctx, "sale committed", "recipe_id", recipeID, "sale_id", result.SaleID, "lines", len(result.Movements))
	return result, nil
}

func (e *Engine) sellOnce(ctx context.Context, recipeID uint) (SaleResult, error) {
	// The pre-read only decides which keys to lock; everything is re-checked
	// inside the transaction.
	planned, err := e.compositions.Lines(ctx, recipeID)
	if err != nil {
		return SaleResult{}, err
	}
	if len(planned) == 0 {
		if err := e.recipeExists(ctx, recipeID); err != nil {
			return SaleResult{}, err
		}
		return SaleResult{}, ErrEmptyComposition
	}

	keys := make([]string, 0, len(planned)+1)
	keys = append(keys, recipeKey(recipeID))
	for _, row := range planned {
		keys = append(keys, ingredientKey(row.IngredientID))
	}
	release, err := e.guard.hold(ctx, keys...)
	if err != nil {
		applog.Error(ctx, "sale lock not acquired", "recipe_id", recipeID, "error", err)
		return SaleResult{}, err
	}
	defer release()

	var result SaleResult
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = e.sellLocked(ctx, tx, recipeID, planned)
		return txErr
	})
	if err != nil {
		err = classify("sell recipe", err)
		switch {
		case errors.Is(err, errLockSetChanged):
		case errors.Is(err, ErrInternal):
			applog.Error(ctx, "sale rolled back", "recipe_id", recipeID, "error", err)
		default:
			applog.Info(ctx, "sale rejected", "recipe_id", recipeID, "reason", err.Error())
		}
		return SaleResult{}, err
	}
	return result, nil
}

func (e *Engine) sellLocked(ctx context.Context, tx *gorm.DB, recipeID uint, planned []models.RecipeIngredient) (SaleResult, error) {
	var recipe models.Recipe
	if err := tx.First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResult{}, ErrRecipeNotFound
		}
		return SaleResult{}, err
	}

	lines, err := e.compositions.with(tx).Lines(ctx, recipeID)
	if err != nil {
		return SaleResult{}, err
	}
	if len(lines) == 0 {
		return SaleResult{}, ErrEmptyComposition
	}
	if !sameIngredients(planned, lines) {
		return SaleResult{}, errLockSetChanged
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.IngredientID)
	}
	stock, err := lockIngredients(tx, ids)
	if err != nil {
		return SaleResult{}, err
	}

	// Verify every line before writing anything.
	for _, line := range lines {
		current, ok := stock[line.IngredientID]
		if !ok {
			return SaleResult{}, &IngredientNotFoundError{IngredientID: line.IngredientID}
		}
		if current.Quantity.LessThan(line.Quantity) {
			return SaleResult{}, &InsufficientStockError{
				IngredientID: current.ID,
				Name:         current.Name,
				Unit:         current.Unit,
				Required:     line.Quantity,
				Available:    current.Quantity,
			}
		}
	}

	movements := make([]StockMovement, 0, len(lines))
	for _, line := range lines {
		updated, err := decrementLocked(tx, stock[line.IngredientID], line.Quantity)
		if err != nil {
			return SaleResult{}, err
		}
		movements = append(movements, StockMovement{
			IngredientID: updated.ID,
			Name:         updated.Name,
			Unit:         updated.Unit,
			Consumed:     line.Quantity,
			Remaining:    updated.Quantity,
		})
	}

	return SaleResult{
		SaleID:     uuid.NewString(),
		RecipeID:   recipe.ID,
		RecipeName: recipe.Name,
		Price:      recipe.Price,
		Movements:  movements,
		SoldAt:     e.now().UTC(),
		Message:    saleMessage,
	}, nil
}

func (e *Engine) recipeExists(ctx context.Context, recipeID uint) error {
	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return storageError("load recipe", err)
	}
	if count == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// sameIngredients reports whether both compositions reference the same set
// of ingredients.
func sameIngredients(a, b []models.RecipeIngredient) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uint]struct{}, len(a))
	for _, row := range a {
		seen[row.IngredientID] = struct{}{}
	}
	for _, row := range b {
		if _, ok := seen[row.IngredientID]; !ok {
			return false
		}
	}
	return true
}
