package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "mise/internal/log"
	"mise/models"
)

// RecipeInput is the full definition of a recipe: metadata plus composition.
type RecipeInput struct {
	Name        string
	Price       decimal.Decimal
	Ingredients []Line
}

// RecipeDetail is a recipe with its composition view.
type RecipeDetail struct {
	models.Recipe
	Ingredients []CompositionLine `json:"ingredients"`
}

// Directory manages recipe metadata and owns recipe-side cascades.
type Directory struct {
	db           *gorm.DB
	guard        *guard
	compositions *CompositionStore
}

func (in RecipeInput) validate() (string, error) {
	name, err := checkName("name", in.Name)
	if err != nil {
		return "", err
	}
	if err := checkNonNegative("price", in.Price, PriceScale); err != nil {
		return "", err
	}
	if err := validateLines(in.Ingredients); err != nil {
		return "", err
	}
	return name, nil
}

func recipeLockKeys(recipeID uint, lines []Line) []string {
	keys := make([]string, 0, len(lines)+1)
	if recipeID != 0 {
		keys = append(keys, recipeKey(recipeID))
	}
	for _, line := range lines {
		keys = append(keys, ingredientKey(line.IngredientID))
	}
	return keys
}

// CreateRecipe inserts the recipe row and its composition in one transaction.
// Any invalid line leaves no recipe behind.
func (d *Directory) CreateRecipe(ctx context.Context, in RecipeInput) (RecipeDetail, error) {
	name, err := in.validate()
	if err != nil {
		return RecipeDetail{}, err
	}

	release, err := d.guard.hold(ctx, recipeLockKeys(0, in.Ingredients)...)
	if err != nil {
		return RecipeDetail{}, err
	}
	defer release()

	recipe := models.Recipe{Name: name, Price: in.Price}
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("recipe %q: %w", name, ErrDuplicateName)
			}
			return err
		}
		return d.compositions.with(tx).Create(ctx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return RecipeDetail{}, classify("create recipe", err)
	}

	applog.Info(ctx, "recipe created", "id", recipe.ID, "name", recipe.Name, "lines", len(in.Ingredients))
	return d.GetRecipe(ctx, recipe.ID)
}

func (d *Directory) recipe(ctx context.Context, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	if err := d.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, ErrRecipeNotFound
		}
		return models.Recipe{}, storageError("load recipe", err)
	}
	return recipe, nil
}

func (d *Directory) GetRecipe(ctx context.Context, id uint) (RecipeDetail, error) {
	recipe, err := d.recipe(ctx, id)
	if err != nil {
		return RecipeDetail{}, err
	}
	lines, err := d.compositions.View(ctx, id)
	if err != nil {
		return RecipeDetail{}, err
	}
	return RecipeDetail{Recipe: recipe, Ingredients: lines}, nil
}

func (d *Directory) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := d.db.WithContext(ctx).Order("name asc").Find(&recipes).Error; err != nil {
		return nil, storageError("list recipes", err)
	}
	return recipes, nil
}

// UpdateRecipe replaces metadata and composition together. Sales of the
// recipe wait on the recipe lock, so none observes a half-replaced
// composition.
func (d *Directory) UpdateRecipe(ctx context.Context, id uint, in RecipeInput) (RecipeDetail, error) {
	name, err := in.validate()
	if err != nil {
		return RecipeDetail{}, err
	}

	release, err := d.guard.hold(ctx, recipeLockKeys(id, in.Ingredients)...)
	if err != nil {
		return RecipeDetail{}, err
	}
	defer release()

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		if err := tx.Model(&recipe).Updates(map[string]any{"name": name, "price": in.Price}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("recipe %q: %w", name, ErrDuplicateName)
			}
			return err
		}

		store := d.compositions.with(tx)
		if _, err := store.DeleteForRecipe(ctx, id); err != nil {
			return err
		}
		return store.Create(ctx, id, in.Ingredients)
	})
	if err != nil {
		return RecipeDetail{}, classify("update recipe", err)
	}

	applog.Info(ctx, "recipe updated", "id", id, "lines", len(in.Ingredients))
	return d.GetRecipe(ctx, id)
}

// DeleteRecipe cascades to the composition rows. Ingredients are untouched.
func (d *Directory) DeleteRecipe(ctx context.Context, id uint) error {
	release, err := d.guard.hold(ctx, recipeKey(id))
	if err != nil {
		return err
	}
	defer release()

	var removed int64
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		n, err := d.compositions.with(tx).DeleteForRecipe(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return tx.Delete(&recipe).Error
	})
	if err != nil {
		return classify("delete recipe", err)
	}

	applog.Info(ctx, "recipe deleted", "id", id, "composition_rows", removed)
	return nil
}
