package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"mise/internal/inventory"
	applog "mise/internal/log"
)

const ingredientsPrefix = "/api/v1/ingredients"

type ingredientCreateRequest struct {
	Name     string           `json:"name" validate:"required,max=255"`
	Quantity *decimal.Decimal `json:"quantity" validate:"required,decimal_gte0,decimal_scale=6,decimal_intdigits=9"`
	Unit     string           `json:"unit" validate:"max=50"`
}

type ingredientUpdateRequest struct {
	Name     *string          `json:"name" validate:"omitempty,max=255"`
	Quantity *decimal.Decimal `json:"quantity" validate:"omitempty,decimal_gte0,decimal_scale=6,decimal_intdigits=9"`
	Unit     *string          `json:"unit" validate:"omitempty,max=50"`
}

type restockRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,decimal_gt0,decimal_scale=6,decimal_intdigits=9"`
}

// IngredientResource handles /api/v1/ingredients and its sub-resources.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if unavailable(w, r) {
		return
	}

	segments := resourcePath(r, ingredientsPrefix)
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	ingredientID, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		applog.Debug(r.Context(), "invalid ingredient path", "path", r.URL.Path)
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	if len(segments) == 2 {
		if segments[1] != "restock" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		restockIngredient(w, r, ingredientID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, ingredientID)
	case http.MethodPut, http.MethodPatch:
		updateIngredient(w, r, ingredientID)
	case http.MethodDelete:
		deleteIngredient(w, r, ingredientID)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := service.Ledger.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "load ingredients")
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func showIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ingredient, err := service.Ledger.Get(r.Context(), ingredientID)
	if err != nil {
		writeServiceError(w, r, err, "load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	var payload ingredientCreateRequest
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	ingredient, err := service.Ledger.Create(r.Context(), inventory.IngredientInput{
		Name:     payload.Name,
		Quantity: *payload.Quantity,
		Unit:     payload.Unit,
	})
	if err != nil {
		writeServiceError(w, r, err, "create ingredient")
		return
	}

	applog.Info(r.Context(), "ingredient created", "id", ingredient.ID, "name", ingredient.Name)
	writeJSON(w, http.StatusCreated, ingredient)
}

func updateIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	var payload ingredientUpdateRequest
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	ingredient, err := service.Ledger.Update(r.Context(), ingredientID, inventory.IngredientPatch{
		Name:     payload.Name,
		Quantity: payload.Quantity,
		Unit:     payload.Unit,
	})
	if err != nil {
		writeServiceError(w, r, err, "update ingredient")
		return
	}

	applog.Info(r.Context(), "ingredient updated", "id", ingredient.ID)
	writeJSON(w, http.StatusOK, ingredient)
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	if err := service.Ledger.Delete(r.Context(), ingredientID); err != nil {
		writeServiceError(w, r, err, "delete ingredient")
		return
	}

	applog.Info(r.Context(), "ingredient deleted", "id", ingredientID)
	w.WriteHeader(http.StatusNoContent)
}

func restockIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	var payload restockRequest
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	ingredient, err := service.Ledger.Restock(r.Context(), ingredientID, *payload.Amount)
	if err != nil {
		writeServiceError(w, r, err, "restock ingredient")
		return
	}

	applog.Info(r.Context(), "ingredient restocked", "id", ingredient.ID, "amount", payload.Amount.String())
	writeJSON(w, http.StatusOK, ingredient)
}
