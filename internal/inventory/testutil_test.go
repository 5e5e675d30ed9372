package inventory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mise/models"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// openTestDB returns a private in-memory database with the schema applied.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", name, uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&models.Ingredient{}, &models.Recipe{}, &models.RecipeIngredient{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	return New(db, WithClock(func() time.Time { return fixedNow })), db
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func mustIngredient(t *testing.T, svc *Service, name, quantity, unit string) models.Ingredient {
	t.Helper()
	ingredient, err := svc.Ledger.Create(context.Background(), IngredientInput{
		Name:     name,
		Quantity: dec(t, quantity),
		Unit:     unit,
	})
	if err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return ingredient
}

func mustRecipe(t *testing.T, svc *Service, name, price string, lines ...Line) RecipeDetail {
	t.Helper()
	recipe, err := svc.CreateRecipeWithComposition(context.Background(), RecipeInput{
		Name:        name,
		Price:       dec(t, price),
		Ingredients: lines,
	})
	if err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	return recipe
}

func line(t *testing.T, ingredient models.Ingredient, quantity string) Line {
	t.Helper()
	return Line{IngredientID: ingredient.ID, Quantity: dec(t, quantity)}
}

func quantityOf(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var ingredient models.Ingredient
	if err := db.First(&ingredient, id).Error; err != nil {
		t.Fatalf("load ingredient %d: %v", id, err)
	}
	return ingredient.Quantity
}

func assertQuantity(t *testing.T, db *gorm.DB, id uint, want string) {
	t.Helper()
	got := quantityOf(t, db, id)
	if !got.Equal(dec(t, want)) {
		t.Fatalf("ingredient %d quantity = %s, want %s", id, got, want)
	}
}
