package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error categories. Every error returned by this package matches exactly one
// of them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

var (
	ErrRecipeNotFound     = fmt.Errorf("recipe %w", ErrNotFound)
	ErrEmptyComposition   = fmt.Errorf("%w: recipe has no ingredients", ErrInvalidInput)
	ErrNoFieldsToUpdate   = fmt.Errorf("%w: no fields supplied for update", ErrInvalidInput)
	ErrIngredientInUse    = fmt.Errorf("%w: ingredient is used by a recipe", ErrConflict)
	ErrDuplicateName      = fmt.Errorf("%w: name already exists", ErrConflict)
	ErrConcurrentMutation = fmt.Errorf("%w: stock changed concurrently", ErrConflict)
)

// IngredientNotFoundError identifies the missing stock item.
type IngredientNotFoundError struct {
	IngredientID uint
}

func (e *IngredientNotFoundError) Error() string {
	return fmt.Sprintf("ingredient %d not found", e.IngredientID)
}

func (e *IngredientNotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports the first ingredient that could not cover a sale.
type InsufficientStockError struct {
	IngredientID uint
	Name         string
	Unit         string
	Required     decimal.Decimal
	Available    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s: required %s, available %s",
		e.Name, e.Required.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrConflict }

// ValidationError names the offending field of a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// storageError marks err as Internal while keeping the cause for logs.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrInternal, err))
}
