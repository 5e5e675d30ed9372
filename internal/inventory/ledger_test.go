package inventory

import (
	"context"
	"errors"
	"testing"
)

func TestLedgerCreateValidatesInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	tests := []struct {
		name  string
		input IngredientInput
		field string
	}{
		{name: "blank name", input: IngredientInput{Name: "   ", Quantity: dec(t, "1")}, field: "name"},
		{name: "negative quantity", input: IngredientInput{Name: "Flour", Quantity: dec(t, "-0.5")}, field: "quantity"},
		{name: "too precise", input: IngredientInput{Name: "Flour", Quantity: dec(t, "0.0000001")}, field: "quantity"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ledger.Create(context.Background(), tt.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q", verr.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input category, got %v", err)
			}
		})
	}
}

func TestLedgerCreateTrimsAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Ledger.Create(ctx, IngredientInput{Name: "  Flour ", Quantity: dec(t, "2.5"), Unit: " kg "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Name != "Flour" || created.Unit != "kg" || created.ID == 0 {
		t.Fatalf("unexpected ingredient: %+v", created)
	}

	_, err = svc.Ledger.Create(ctx, IngredientInput{Name: "Flour", Quantity: dec(t, "1")})
	if !errors.Is(err, ErrDuplicateName) || !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want duplicate name conflict", err)
	}
}

func TestLedgerGetAndList(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	yeast := mustIngredient(t, svc, "Yeast", "0.5", "kg")
	mustIngredient(t, svc, "Basil", "0.2", "kg")

	got, err := svc.Ledger.Get(ctx, yeast.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Yeast" || !got.Quantity.Equal(dec(t, "0.5")) {
		t.Fatalf("unexpected ingredient: %+v", got)
	}

	_, err = svc.Ledger.Get(ctx, 404)
	var missing *IngredientNotFoundError
	if !errors.As(err, &missing) || missing.IngredientID != 404 || !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want IngredientNotFoundError(404)", err)
	}

	all, err := svc.Ledger.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[0].Name != "Basil" || all[1].Name != "Yeast" {
		t.Fatalf("expected name-ordered list, got %+v", all)
	}
}

func TestLedgerUpdate(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	flour := mustIngredient(t, svc, "Flour", "2.5", "kg")
	mustIngredient(t, svc, "Sugar", "1", "kg")

	if _, err := svc.Ledger.Update(ctx, flour.ID, IngredientPatch{}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Fatalf("empty patch error = %v, want ErrNoFieldsToUpdate", err)
	}

	unit := "g"
	updated, err := svc.Ledger.Update(ctx, flour.ID, IngredientPatch{Unit: &unit})
	if err != nil {
		t.Fatalf("Update(unit) error = %v", err)
	}
	if updated.Unit != "g" || updated.Name != "Flour" || !updated.Quantity.Equal(dec(t, "2.5")) {
		t.Fatalf("unit patch touched other fields: %+v", updated)
	}

	quantity := dec(t, "2500")
	if _, err := svc.Ledger.Update(ctx, flour.ID, IngredientPatch{Quantity: &quantity}); err != nil {
		t.Fatalf("Update(quantity) error = %v", err)
	}
	assertQuantity(t, db, flour.ID, "2500")

	negative := dec(t, "-1")
	if _, err := svc.Ledger.Update(ctx, flour.ID, IngredientPatch{Quantity: &negative}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative quantity error = %v, want invalid input", err)
	}

	sugar := "Sugar"
	if _, err := svc.Ledger.Update(ctx, flour.ID, IngredientPatch{Name: &sugar}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("rename error = %v, want ErrDuplicateName", err)
	}

	if _, err := svc.Ledger.Update(ctx, 999, IngredientPatch{Unit: &unit}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing ingredient error = %v, want not found", err)
	}
}

func TestLedgerDeleteRestrictsReferencedIngredients(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	flour := mustIngredient(t, svc, "Flour", "2.5", "kg")
	parsley := mustIngredient(t, svc, "Parsley", "0.1", "kg")
	mustRecipe(t, svc, "Bread", "4.50", line(t, flour, "1.2"))

	if err := svc.Ledger.Delete(ctx, flour.ID); !errors.Is(err, ErrIngredientInUse) {
		t.Fatalf("Delete(referenced) error = %v, want ErrIngredientInUse", err)
	}
	if _, err := svc.Ledger.Get(ctx, flour.ID); err != nil {
		t.Fatalf("referenced ingredient should survive: %v", err)
	}

	if err := svc.Ledger.Delete(ctx, parsley.ID); err != nil {
		t.Fatalf("Delete(unreferenced) error = %v", err)
	}
	if _, err := svc.Ledger.Get(ctx, parsley.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted ingredient to be gone, got %v", err)
	}

	if err := svc.Ledger.Delete(ctx, parsley.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want not found", err)
	}
}

func TestLedgerDecrementAndRestock(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	oil := mustIngredient(t, svc, "Olive Oil", "1", "l")

	after, err := svc.Ledger.Decrement(ctx, oil.ID, dec(t, "0.25"))
	if err != nil {
		t.Fatalf("Decrement() error = %v", err)
	}
	if !after.Quantity.Equal(dec(t, "0.75")) {
		t.Fatalf("quantity after decrement = %s", after.Quantity)
	}

	_, err = svc.Ledger.Decrement(ctx, oil.ID, dec(t, "0.76"))
	var shortage *InsufficientStockError
	if !errors.As(err, &shortage) {
		t.Fatalf("overdraw error = %v, want InsufficientStockError", err)
	}
	assertQuantity(t, db, oil.ID, "0.75")

	if _, err := svc.Ledger.Decrement(ctx, oil.ID, dec(t, "0")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero decrement error = %v, want invalid input", err)
	}
	if _, err := svc.Ledger.Decrement(ctx, 999, dec(t, "1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing ingredient error = %v, want not found", err)
	}

	restocked, err := svc.Ledger.Restock(ctx, oil.ID, dec(t, "2.25"))
	if err != nil {
		t.Fatalf("Restock() error = %v", err)
	}
	if !restocked.Quantity.Equal(dec(t, "3")) {
		t.Fatalf("quantity after restock = %s", restocked.Quantity)
	}
	assertQuantity(t, db, oil.ID, "3")

	if _, err := svc.Ledger.Restock(ctx, oil.ID, dec(t, "-1")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative restock error = %v, want invalid input", err)
	}
}

func TestLedgerKeepsLargeQuantitiesExact(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Ledger.Create(ctx, IngredientInput{Name: "Salt", Quantity: dec(t, "12345678901.123457"), Unit: "g"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized create error = %v, want invalid input", err)
	}

	salt := mustIngredient(t, svc, "Salt", "999999999.999999", "g")
	pinch := mustRecipe(t, svc, "Pinch", "0.10", line(t, salt, "0.000001"))
	if _, err := svc.SellRecipe(ctx, pinch.ID); err != nil {
		t.Fatalf("SellRecipe() error = %v", err)
	}
	assertQuantity(t, db, salt.ID, "999999999.999998")

	_, err := svc.Ledger.Restock(ctx, salt.ID, dec(t, "0.000003"))
	var invalidErr *ValidationError
	if !errors.As(err, &invalidErr) || invalidErr.Field != "amount" {
		t.Fatalf("overflowing restock error = %v, want amount validation error", err)
	}
	assertQuantity(t, db, salt.ID, "999999999.999998")

	huge := dec(t, "1000000000")
	if _, err := svc.Ledger.Update(ctx, salt.ID, IngredientPatch{Quantity: &huge}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized update error = %v, want invalid input", err)
	}
}
