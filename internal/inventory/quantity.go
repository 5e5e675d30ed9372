package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// QuantityScale is the number of fractional digits stored for quantities.
	QuantityScale = 6
	// PriceScale is the number of fractional digits stored for prices.
	PriceScale = 2
	// MaxIntegerDigits bounds the integer part of quantities and prices so
	// every stored value stays exact on every driver, sqlite REAL included.
	MaxIntegerDigits = 9
)

// maxMagnitude is the smallest value with more than MaxIntegerDigits integer digits.
var maxMagnitude = decimal.New(1, MaxIntegerDigits)

// withinMagnitude reports whether d has at most MaxIntegerDigits integer digits.
func withinMagnitude(d decimal.Decimal) bool {
	return d.Abs().LessThan(maxMagnitude)
}

// ParseQuantity parses a decimal literal without going through float64.
func ParseQuantity(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, invalid("quantity", "must be a decimal number")
	}
	return d, nil
}

// fitsScale reports whether d can be stored with at most scale fractional
// digits without rounding.
func fitsScale(d decimal.Decimal, scale int32) bool {
	return d.Equal(d.Truncate(scale))
}

func checkPositive(field string, d decimal.Decimal, scale int32) error {
	if !d.IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	if !withinMagnitude(d) {
		return invalid(field, "is too large")
	}
	if !fitsScale(d, scale) {
		return invalid(field, "has too many decimal places")
	}
	return nil
}

func checkNonNegative(field string, d decimal.Decimal, scale int32) error {
	if d.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !withinMagnitude(d) {
		return invalid(field, "is too large")
	}
	if !fitsScale(d, scale) {
		return invalid(field, "has too many decimal places")
	}
	return nil
}

func checkName(field, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalid(field, "is required")
	}
	if len(trimmed) > 255 {
		return "", invalid(field, "is too long")
	}
	return trimmed, nil
}
