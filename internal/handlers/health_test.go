package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	original := service
	service = nil
	t.Cleanup(func() { service = original })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Database != "unconfigured" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Time.IsZero() {
		t.Fatal("expected response time to be populated")
	}
}

func TestHealthPingsDatabase(t *testing.T) {
	_, db := withTestService(t)

	w := serve(t, Health, http.MethodGet, "/healthz", nil)
	var resp healthResponse
	decodeBody(t, w, &resp)
	if w.Code != http.StatusOK || resp.Database != "ok" {
		t.Fatalf("expected healthy database, got %d %+v", w.Code, resp)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	_ = sqlDB.Close()

	w = serve(t, Health, http.MethodGet, "/healthz", nil)
	decodeBody(t, w, &resp)
	if w.Code != http.StatusServiceUnavailable || resp.Status != "degraded" {
		t.Fatalf("expected degraded health, got %d %+v", w.Code, resp)
	}
}

func TestIndex(t *testing.T) {
	w := serve(t, Index, http.MethodGet, "/api/v1/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp indexResponse
	decodeBody(t, w, &resp)
	if resp.Message != welcomeMessage || len(resp.Resources) != 2 {
		t.Fatalf("unexpected index response: %+v", resp)
	}

	if w := serve(t, Index, http.MethodGet, "/api/v1/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if w := serve(t, Index, http.MethodPost, "/api/v1", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", w.Code)
	}
}

func TestValidationFields(t *testing.T) {
	payload := recipeRequest{
		Name:        "",
		Ingredients: []recipeLineRequest{{IngredientID: 0}},
	}
	fields := validationFields(validate.Struct(payload))
	for _, want := range []string{"name", "price", "ingredients[0].ingredient_id", "ingredients[0].quantity"} {
		if _, ok := fields[want]; !ok {
			t.Fatalf("expected %q in %v", want, fields)
		}
	}
}
