/**
 * @description
 * This file sets up the HTTP router for the paylater-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for caller identity.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PayLaterRoutes creates and returns a new router for the paylater service.
func PayLaterRoutes(h *PayLaterHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// User-facing endpoints require the gateway-injected identity header.
	r.Group(func(r chi.Router) {
		r.Use(UserIdentityMiddleware)

		r.Post("/applications", h.SubmitApplicationHandler)
		r.Get("/applications/status", h.GetApplicationStatusHandler)
	})

	// Internal endpoints are called service-to-service with the shared API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		r.Post("/internal/order-eligibility", h.OrderEligibilityHandler)
	})

	return r
}
