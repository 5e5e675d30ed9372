package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"mise/internal/inventory"
	applog "mise/internal/log"
)

const maxBodyBytes = 1 << 20

var service *inventory.Service

// Configure installs the inventory service used by the API resources.
func Configure(svc *inventory.Service) {
	service = svc
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type shortageResponse struct {
	Error        string          `json:"error"`
	IngredientID uint            `json:"ingredient_id"`
	Ingredient   string          `json:"ingredient"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps inventory error categories onto HTTP statuses.
// Internal causes are logged and replaced by a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	ctx := r.Context()

	var shortage *inventory.InsufficientStockError
	var invalid *inventory.ValidationError
	switch {
	case errors.As(err, &shortage):
		writeJSON(w, http.StatusConflict, shortageResponse{
			Error:        shortage.Error(),
			IngredientID: shortage.IngredientID,
			Ingredient:   shortage.Name,
			Unit:         shortage.Unit,
			Required:     shortage.Required,
			Available:    shortage.Available,
		})
	case errors.Is(err, inventory.ErrNotFound):
		applog.Debug(ctx, "resource not found", "action", action, "error", err)
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "invalid request",
			Fields: map[string]string{invalid.Field: invalid.Reason},
		})
	case errors.Is(err, inventory.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		applog.Error(ctx, "failed to "+action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to "+action)
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the 400 response itself and reports whether decoding succeeded.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		applog.Debug(ctx, "invalid request payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		fields := validationFields(err)
		applog.Debug(ctx, "request failed validation", "path", r.URL.Path, "fields", fields)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
		return false
	}
	return true
}

// resourcePath splits the request path below prefix into segments.
func resourcePath(r *http.Request, prefix string) []string {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func parseID(value string) (uint, bool) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func unavailable(w http.ResponseWriter, r *http.Request) bool {
	if service != nil {
		return false
	}
	applog.Debug(r.Context(), "api request without inventory service", "path", r.URL.Path)
	writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
	return true
}
