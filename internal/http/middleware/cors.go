package middleware

import (
	"net/http"

	"crmpush/internal/config"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CORS returns nil when no origin is configured, so callers can skip it.
func CORS(cfg config.Config) func(http.Handler) http.Handler {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return nil
	}

	allowed := []string{"Content-Type"}
	if cfg.AuthEnabled() {
		allowed = append(allowed, "Authorization")
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		// the API only reads jobs and submits batches
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   allowed,
		ExposedHeaders:   []string{chimw.RequestIDHeader},
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           600,
	})
}
