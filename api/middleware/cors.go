package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const corsMaxAgeSeconds = 300

// CORS lets the storefront origins call the API with credentials so the guest
// token cookie travels. With no origins configured only the local dev
// storefront is allowed.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, requestIDHeader, sessionIDHeader},
		ExposedHeaders:   []string{requestIDHeader, idempotentReplayedHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeSeconds,
	})
}
