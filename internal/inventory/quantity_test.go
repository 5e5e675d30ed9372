package inventory

import (
	"errors"
	"strings"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "2.500", want: "2.5"},
		{input: " 0.1 ", want: "0.1"},
		{input: "1200", want: "1200"},
		{input: "1e-3", want: "0.001"},
		{input: "", wantErr: true},
		{input: "two", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseQuantity(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseQuantity(%q) error = %v, want invalid input", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuantity(%q) error = %v", tt.input, err)
			}
			if !got.Equal(dec(t, tt.want)) {
				t.Fatalf("ParseQuantity(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecimalArithmeticIsExact(t *testing.T) {
	t.Parallel()

	total := dec(t, "0")
	for i := 0; i < 10; i++ {
		total = total.Add(dec(t, "0.1"))
	}
	if !total.Equal(dec(t, "1")) {
		t.Fatalf("sum of ten 0.1 = %s, want 1", total)
	}
}

func TestScaleChecks(t *testing.T) {
	t.Parallel()

	if err := checkPositive("q", dec(t, "0.000001"), QuantityScale); err != nil {
		t.Fatalf("six decimals should fit: %v", err)
	}
	if err := checkPositive("q", dec(t, "0.0000001"), QuantityScale); err == nil {
		t.Fatal("seven decimals should be rejected")
	}
	if err := checkNonNegative("price", dec(t, "0"), PriceScale); err != nil {
		t.Fatalf("zero price should be accepted: %v", err)
	}
	if err := checkNonNegative("price", dec(t, "1.999"), PriceScale); err == nil {
		t.Fatal("three price decimals should be rejected")
	}
}

func TestMagnitudeChecks(t *testing.T) {
	t.Parallel()

	if err := checkPositive("q", dec(t, "999999999.999999"), QuantityScale); err != nil {
		t.Fatalf("nine integer digits should fit: %v", err)
	}
	if err := checkPositive("q", dec(t, "1000000000"), QuantityScale); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ten integer digits error = %v, want invalid input", err)
	}
	if err := checkNonNegative("quantity", dec(t, "12345678901.123457"), QuantityScale); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized quantity error = %v, want invalid input", err)
	}
	if err := checkNonNegative("price", dec(t, "1000000000.00"), PriceScale); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized price error = %v, want invalid input", err)
	}
}

func TestCheckName(t *testing.T) {
	t.Parallel()

	if got, err := checkName("name", "  Flour  "); err != nil || got != "Flour" {
		t.Fatalf("checkName() = %q, %v", got, err)
	}
	if _, err := checkName("name", "\t"); err == nil {
		t.Fatal("blank name should be rejected")
	}
	if _, err := checkName("name", strings.Repeat("x", 256)); err == nil {
		t.Fatal("overlong name should be rejected")
	}
}

func TestErrorCategories(t *testing.T) {
	t.Parallel()

	shortage := &InsufficientStockError{Name: "Flour", Required: dec(t, "1.2"), Available: dec(t, "0.1")}
	if shortage.Error() != "insufficient stock of Flour: required 1.2, available 0.1" {
		t.Fatalf("unexpected message %q", shortage.Error())
	}

	tests := []struct {
		err  error
		want error
	}{
		{err: ErrRecipeNotFound, want: ErrNotFound},
		{err: &IngredientNotFoundError{IngredientID: 3}, want: ErrNotFound},
		{err: shortage, want: ErrConflict},
		{err: ErrIngredientInUse, want: ErrConflict},
		{err: ErrEmptyComposition, want: ErrInvalidInput},
		{err: invalid("name", "is required"), want: ErrInvalidInput},
		{err: storageError("load", errors.New("disk on fire")), want: ErrInternal},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Fatalf("%v does not match %v", tt.err, tt.want)
		}
	}

	if classify("op", ErrRecipeNotFound) != ErrRecipeNotFound {
		t.Fatal("classify should pass domain errors through")
	}
	if err := classify("op", errors.New("boom")); !errors.Is(err, ErrInternal) {
		t.Fatalf("classify() = %v, want internal", err)
	}
	if storageError("op", nil) != nil {
		t.Fatal("storageError(nil) should be nil")
	}
}
