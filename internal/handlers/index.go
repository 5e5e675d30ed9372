package handlers

import (
	"net/http"
)

const welcomeMessage = "Welcome to the mise kitchen inventory API"

type indexResponse struct {
	Message   string   `json:"message"`
	Resources []string `json:"resources"`
}

// Index greets API clients and lists the top-level resources.
func Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1" && r.URL.Path != "/api/v1/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, indexResponse{
		Message:   welcomeMessage,
		Resources: []string{ingredientsPrefix, recipesPrefix},
	})
}
