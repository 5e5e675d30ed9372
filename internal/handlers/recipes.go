package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"mise/internal/inventory"
	applog "mise/internal/log"
)

const recipesPrefix = "/api/v1/recipes"

type recipeLineRequest struct {
	IngredientID uint             `json:"ingredient_id" validate:"required"`
	Quantity     *decimal.Decimal `json:"quantity" validate:"required,decimal_gt0,decimal_scale=6,decimal_intdigits=9"`
}

type recipeRequest struct {
	Name        string              `json:"name" validate:"required,max=255"`
	Price       *decimal.Decimal    `json:"price" validate:"required,decimal_gte0,decimal_scale=2,decimal_intdigits=9"`
	Ingredients []recipeLineRequest `json:"ingredients" validate:"required,min=1,dive"`
}

func (p recipeRequest) input() inventory.RecipeInput {
	lines := make([]inventory.Line, 0, len(p.Ingredients))
	for _, line := range p.Ingredients {
		lines = append(lines, inventory.Line{IngredientID: line.IngredientID, Quantity: *line.Quantity})
	}
	return inventory.RecipeInput{Name: p.Name, Price: *p.Price, Ingredients: lines}
}

// RecipeResource handles /api/v1/recipes, their composition and sales.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if unavailable(w, r) {
		return
	}

	segments := resourcePath(r, recipesPrefix)
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r)
		case http.MethodPost:
			createRecipe(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	recipeID, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		applog.Debug(r.Context(), "invalid recipe path", "path", r.URL.Path)
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	if len(segments) == 2 {
		switch segments[1] {
		case "composition":
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			showComposition(w, r, recipeID)
		case "sell":
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			sellRecipe(w, r, recipeID)
		default:
			writeJSONError(w, http.StatusNotFound, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, recipeID)
	case http.MethodPut:
		updateRecipe(w, r, recipeID)
	case http.MethodDelete:
		deleteRecipe(w, r, recipeID)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := service.ListRecipes(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "load recipes")
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func showRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	recipe, err := service.GetRecipe(r.Context(), recipeID)
	if err != nil {
		writeServiceError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func createRecipe(w http.ResponseWriter, r *http.Request) {
	var payload recipeRequest
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	recipe, err := service.CreateRecipeWithComposition(r.Context(), payload.input())
	if err != nil {
		writeServiceError(w, r, err, "create recipe")
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func updateRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	var payload recipeRequest
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	recipe, err := service.UpdateRecipe(r.Context(), recipeID, payload.input())
	if err != nil {
		writeServiceError(w, r, err, "update recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	if err := service.DeleteRecipe(r.Context(), recipeID); err != nil {
		writeServiceError(w, r, err, "delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func showComposition(w http.ResponseWriter, r *http.Request, recipeID uint) {
	lines, err := service.GetComposition(r.Context(), recipeID)
	if err != nil {
		writeServiceError(w, r, err, "load composition")
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func sellRecipe(w http.ResponseWriter, r *http.Request, recipeID uint) {
	ctx := applog.WithAttrs(r.Context(), "recipe_id", recipeID)
	result, err := service.SellRecipe(ctx, recipeID)
	if err != nil {
		writeServiceError(w, r.WithContext(ctx), err, "record sale")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
