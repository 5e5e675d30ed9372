package server

import (
	"context"
	"net/http"

	"mise/internal/handlers"
	applog "mise/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	routes := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{path: "/healthz", handler: handlers.Health},
		{path: "/api/v1", handler: handlers.Index},
		{path: "/api/v1/", handler: handlers.Index},
		{path: "/api/v1/ingredients", handler: handlers.IngredientResource},
		{path: "/api/v1/ingredients/", handler: handlers.IngredientResource},
		{path: "/api/v1/recipes", handler: handlers.RecipeResource},
		{path: "/api/v1/recipes/", handler: handlers.RecipeResource},
	}
	for _, route := range routes {
		mux.HandleFunc(route.path, route.handler)
		applog.Debug(context.Background(), "route registered", "path", route.path)
	}
	return mux
}
