package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/ember/internal/config"
)

// exposedHeaders are readable by browser clients: correlation ids and the rate-limit hint.
//
//nolint:gochecknoglobals // Read-only header list
var exposedHeaders = []string{RequestIDHeader, "X-Trace-Id", "Retry-After"}

// CORS creates a middleware that handles Cross-Origin Resource Sharing (CORS)
// using the github.com/rs/cors library.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   append([]string{RequestIDHeader}, cfg.AllowedHeaders...),
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
