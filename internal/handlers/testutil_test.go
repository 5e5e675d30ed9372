package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mise/internal/inventory"
	"mise/models"
)

func withTestService(t *testing.T) (*inventory.Service, *gorm.DB) {
	t.Helper()
	original := service

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", name, uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Ingredient{}, &models.Recipe{}, &models.RecipeIngredient{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	svc := inventory.New(db)
	service = svc
	t.Cleanup(func() {
		service = original
		_ = sqlDB.Close()
	})
	return svc, db
}

func seedIngredient(t *testing.T, svc *inventory.Service, name, quantity, unit string) models.Ingredient {
	t.Helper()
	ingredient, err := svc.Ledger.Create(context.Background(), inventory.IngredientInput{
		Name:     name,
		Quantity: decimal.RequireFromString(quantity),
		Unit:     unit,
	})
	if err != nil {
		t.Fatalf("failed to seed ingredient %s: %v", name, err)
	}
	return ingredient
}

func seedRecipe(t *testing.T, svc *inventory.Service, name, price string, lines map[uint]string) inventory.RecipeDetail {
	t.Helper()
	input := inventory.RecipeInput{Name: name, Price: decimal.RequireFromString(price)}
	for id, qty := range lines {
		input.Ingredients = append(input.Ingredients, inventory.Line{IngredientID: id, Quantity: decimal.RequireFromString(qty)})
	}
	recipe, err := svc.CreateRecipeWithComposition(context.Background(), input)
	if err != nil {
		t.Fatalf("failed to seed recipe %s: %v", name, err)
	}
	return recipe
}

func serve(t *testing.T, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func ingredientQuantity(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var ingredient models.Ingredient
	if err := db.First(&ingredient, id).Error; err != nil {
		t.Fatalf("failed to load ingredient %d: %v", id, err)
	}
	return ingredient.Quantity
}
