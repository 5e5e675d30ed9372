package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "mise/internal/log"
	"mise/models"
)

// IngredientInput describes a new stock item.
type IngredientInput struct {
	Name     string
	Quantity decimal.Decimal
	Unit     string
}

// IngredientPatch carries the fields of an ingredient update. Nil fields are
// left untouched; a patch with no fields is rejected.
type IngredientPatch struct {
	Name     *string
	Quantity *decimal.Decimal
	Unit     *string
}

func (p IngredientPatch) empty() bool {
	return p.Name == nil && p.Quantity == nil && p.Unit == nil
}

// Ledger owns ingredient rows and their quantity-on-hand.
type Ledger struct {
	db    *gorm.DB
	guard *guard
}

func (l *Ledger) Get(ctx context.Context, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := l.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ingredient{}, &IngredientNotFoundError{IngredientID: id}
		}
		return models.Ingredient{}, storageError("load ingredient", err)
	}
	return ingredient, nil
}

func (l *Ledger) List(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := l.db.WithContext(ctx).Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, storageError("list ingredients", err)
	}
	return ingredients, nil
}

func (l *Ledger) Create(ctx context.Context, in IngredientInput) (models.Ingredient, error) {
	name, err := checkName("name", in.Name)
	if err != nil {
		return models.Ingredient{}, err
	}
	if err := checkNonNegative("quantity", in.Quantity, QuantityScale); err != nil {
		return models.Ingredient{}, err
	}

	ingredient := models.Ingredient{
		Name:     name,
		Quantity: in.Quantity,
		Unit:     strings.TrimSpace(in.Unit),
	}
	if err := l.db.WithContext(ctx).Create(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Ingredient{}, fmt.Errorf("ingredient %q: %w", name, ErrDuplicateName)
		}
		return models.Ingredient{}, storageError("create ingredient", err)
	}

	applog.Debug(ctx, "ingredient created", "id", ingredient.ID, "name", ingredient.Name)
	return ingredient, nil
}

// Update applies a field-level patch. It takes the same lock as a sale so a
// concurrent edit never interleaves with a sale's check-then-decrement.
func (l *Ledger) Update(ctx context.Context, id uint, patch IngredientPatch) (models.Ingredient, error) {
	if patch.empty() {
		return models.Ingredient{}, ErrNoFieldsToUpdate
	}

	updates := map[string]any{}
	if patch.Name != nil {
		name, err := checkName("name", *patch.Name)
		if err != nil {
			return models.Ingredient{}, err
		}
		updates["name"] = name
	}
	if patch.Quantity != nil {
		if err := checkNonNegative("quantity", *patch.Quantity, QuantityScale); err != nil {
			return models.Ingredient{}, err
		}
		updates["quantity"] = *patch.Quantity
	}
	if patch.Unit != nil {
		updates["unit"] = strings.TrimSpace(*patch.Unit)
	}

	release, err := l.guard.hold(ctx, ingredientKey(id))
	if err != nil {
		return models.Ingredient{}, err
	}
	defer release()

	var updated models.Ingredient
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockIngredients(tx, []uint{id})
		if err != nil {
			return err
		}
		current, ok := rows[id]
		if !ok {
			return &IngredientNotFoundError{IngredientID: id}
		}
		if err := tx.Model(&current).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("ingredient %q: %w", updates["name"], ErrDuplicateName)
			}
			return err
		}
		return tx.First(&updated, id).Error
	})
	if err != nil {
		return models.Ingredient{}, classify("update ingredient", err)
	}
	return updated, nil
}

// Delete removes an ingredient that no recipe references. Compositions are
// only ever cascaded from the recipe side.
func (l *Ledger) Delete(ctx context.Context, id uint) error {
	release, err := l.guard.hold(ctx, ingredientKey(id))
	if err != nil {
		return err
	}
	defer release()

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockIngredients(tx, []uint{id})
		if err != nil {
			return err
		}
		if _, ok := rows[id]; !ok {
			return &IngredientNotFoundError{IngredientID: id}
		}

		var references int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("ingredient_id = ?", id).Count(&references).Error; err != nil {
			return err
		}
		if references > 0 {
			return fmt.Errorf("ingredient %d referenced by %d recipe(s): %w", id, references, ErrIngredientInUse)
		}
		return tx.Delete(&models.Ingredient{}, id).Error
	})
	return classify("delete ingredient", err)
}

// Decrement removes amount from a single ingredient in its own transaction.
func (l *Ledger) Decrement(ctx context.Context, id uint, amount decimal.Decimal) (models.Ingredient, error) {
	if err := checkPositive("amount", amount, QuantityScale); err != nil {
		return models.Ingredient{}, err
	}

	release, err := l.guard.hold(ctx, ingredientKey(id))
	if err != nil {
		return models.Ingredient{}, err
	}
	defer release()

	var result models.Ingredient
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockIngredients(tx, []uint{id})
		if err != nil {
			return err
		}
		current, ok := rows[id]
		if !ok {
			return &IngredientNotFoundError{IngredientID: id}
		}
		result, err = decrementLocked(tx, current, amount)
		return err
	})
	if err != nil {
		return models.Ingredient{}, classify("decrement stock", err)
	}
	return result, nil
}

// Restock adds delivered stock to an ingredient.
func (l *Ledger) Restock(ctx context.Context, id uint, amount decimal.Decimal) (models.Ingredient, error) {
	if err := checkPositive("amount", amount, QuantityScale); err != nil {
		return models.Ingredient{}, err
	}

	release, err := l.guard.hold(ctx, ingredientKey(id))
	if err != nil {
		return models.Ingredient{}, err
	}
	defer release()

	var result models.Ingredient
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockIngredients(tx, []uint{id})
		if err != nil {
			return err
		}
		current, ok := rows[id]
		if !ok {
			return &IngredientNotFoundError{IngredientID: id}
		}
		total := current.Quantity.Add(amount)
		if !withinMagnitude(total) {
			return invalid("amount", fmt.Sprintf("would raise stock above %d integer digits", MaxIntegerDigits))
		}
		if err := tx.Model(&models.Ingredient{}).Where("id = ?", id).Update("quantity", total).Error; err != nil {
			return err
		}
		current.Quantity = total
		result = current
		return nil
	})
	if err != nil {
		return models.Ingredient{}, classify("restock ingredient", err)
	}

	applog.Debug(ctx, "ingredient restocked", "id", id, "amount", amount.String(), "quantity", result.Quantity.String())
	return result, nil
}

// lockIngredients loads the given rows FOR UPDATE in id order, keyed by id.
// Missing ids are simply absent from the map.
func lockIngredients(tx *gorm.DB, ids []uint) (map[uint]models.Ingredient, error) {
	var rows []models.Ingredient
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Ingredient, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// decrementLocked writes current.Quantity - amount for a row already locked
// by tx. The quantity guard in the WHERE clause keeps the stored value from
// ever going negative even if a writer bypassed the lock.
func decrementLocked(tx *gorm.DB, current models.Ingredient, amount decimal.Decimal) (models.Ingredient, error) {
	remaining := current.Quantity.Sub(amount)
	if remaining.IsNegative() {
		return models.Ingredient{}, &InsufficientStockError{
			IngredientID: current.ID,
			Name:         current.Name,
			Unit:         current.Unit,
			Required:     amount,
			Available:    current.Quantity,
		}
	}

	res := tx.Model(&models.Ingredient{}).
		Where("id = ? AND quantity >= ?", current.ID, amount).
		Update("quantity", remaining)
	if res.Error != nil {
		return models.Ingredient{}, res.Error
	}
	if res.RowsAffected != 1 {
		return models.Ingredient{}, fmt.Errorf("ingredient %d: %w", current.ID, ErrConcurrentMutation)
	}

	current.Quantity = remaining
	return current, nil
}

func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInternal):
		return err
	default:
		return storageError(op, err)
	}
}
