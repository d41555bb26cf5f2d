package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"jmap-bridge/internal/handlers"
	"jmap-bridge/internal/ratelimit"
	"jmap-bridge/internal/server"
)

// Handler builds the routed HTTP handler.
func (app *App) Handler() http.Handler {
	checks := map[string]handlers.HealthCheck{}
	if app.RedisClient != nil {
		checks["redis"] = app.RedisClient.Health
	}
	h := handlers.New(app.Config, app.Cache, checks)

	// Auth runs first so the limiter can key on the token subject.
	var apiMiddleware []func(http.Handler) http.Handler
	if app.Auth != nil {
		apiMiddleware = append(apiMiddleware, app.Auth.RequireAuth)
	}
	if app.Limiter != nil {
		apiMiddleware = append(apiMiddleware, ratelimit.Middleware(app.Limiter))
	}

	router := mux.NewRouter()
	SetupRoutes(router, h, apiMiddleware...)
	return router
}

// RunServer creates the HTTP server with all handlers configured
func (app *App) RunServer() *server.Server {
	return server.New(app.Handler(), app.Config.Port, "", "")
}
