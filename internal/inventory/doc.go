// Package inventory tracks ingredient stock, recipe compositions and sales.
//
// A sale verifies every ingredient of a recipe against its quantity-on-hand
// and applies all decrements in one transaction, or applies none. Quantities
// are decimal.Decimal throughout; binary floats never hold a stock value.
//
// Errors fall into four categories matched with errors.Is: ErrNotFound,
// ErrConflict, ErrInvalidInput and ErrInternal. InsufficientStockError and
// IngredientNotFoundError carry the offending ingredient.
package inventory
