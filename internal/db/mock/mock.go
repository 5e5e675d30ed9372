package mock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mise/internal/db"
	"mise/internal/inventory"
	applog "mise/internal/log"
)

type stockItem struct {
	name     string
	quantity string
	unit     string
}

type dish struct {
	name  string
	price string
	lines map[string]string
}

var pantry = []stockItem{
	{name: "Flour", quantity: "2.5", unit: "kg"},
	{name: "Yeast", quantity: "0.5", unit: "kg"},
	{name: "Olive Oil", quantity: "1", unit: "l"},
	{name: "Tomato Sauce", quantity: "3", unit: "l"},
	{name: "Mozzarella", quantity: "2", unit: "kg"},
	{name: "Basil", quantity: "0.2", unit: "kg"},
	{name: "Sea Salt", quantity: "1", unit: "kg"},
}

var menu = []dish{
	{
		name:  "Country Bread",
		price: "4.50",
		lines: map[string]string{"Flour": "1.2", "Yeast": "0.01", "Sea Salt": "0.02"},
	},
	{
		name:  "Margherita Pizza",
		price: "11.00",
		lines: map[string]string{"Flour": "0.25", "Tomato Sauce": "0.1", "Mozzarella": "0.125", "Basil": "0.005", "Olive Oil": "0.01"},
	},
	{
		name:  "Focaccia",
		price: "6.25",
		lines: map[string]string{"Flour": "0.5", "Olive Oil": "0.05", "Sea Salt": "0.01", "Yeast": "0.005"},
	},
}

// New returns an in-memory sqlite database seeded with a small demo kitchen.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	cfg := db.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	cfg.PrepareStmt = false

	dsn := fmt.Sprintf("file:mise-mock-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, inventory.New(database)); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, svc *inventory.Service) error {
	applog.Debug(ctx, "seeding mock database")

	ids := make(map[string]uint, len(pantry))
	for _, item := range pantry {
		ingredient, err := svc.Ledger.Create(ctx, inventory.IngredientInput{
			Name:     item.name,
			Quantity: decimal.RequireFromString(item.quantity),
			Unit:     item.unit,
		})
		if err != nil {
			return fmt.Errorf("seed ingredient %s: %w", item.name, err)
		}
		ids[item.name] = ingredient.ID
	}

	for _, d := range menu {
		input := inventory.RecipeInput{
			Name:  d.name,
			Price: decimal.RequireFromString(d.price),
		}
		for _, item := range pantry {
			qty, ok := d.lines[item.name]
			if !ok {
				continue
			}
			input.Ingredients = append(input.Ingredients, inventory.Line{
				IngredientID: ids[item.name],
				Quantity:     decimal.RequireFromString(qty),
			})
		}
		if _, err := svc.CreateRecipeWithComposition(ctx, input); err != nil {
			return fmt.Errorf("seed recipe %s: %w", d.name, err)
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
