package app

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "jmap-bridge/docs"
	"jmap-bridge/internal/handlers"
	"jmap-bridge/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application. apiMiddleware
// wraps the /api routes in the given order.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, apiMiddleware ...func(http.Handler) http.Handler) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)

	// Health check (no auth required)
	router.HandleFunc("/health", h.Health).Methods("GET")

	// Swagger documentation
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := router.PathPrefix("/api").Subrouter()
	for _, mw := range apiMiddleware {
		api.Use(mw)
	}

	api.HandleFunc("/contacts/to-json", h.ContactsToJSON).Methods("POST")
	api.HandleFunc("/contacts/from-json", h.ContactsFromJSON).Methods("POST")
	api.HandleFunc("/calendars/to-json", h.CalendarsToJSON).Methods("POST")
	api.HandleFunc("/calendars/from-json", h.CalendarsFromJSON).Methods("POST")
}
