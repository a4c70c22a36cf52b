// Package api exposes the analyzer over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AllowedOrigins      []string
	MaxRequestBodyBytes int64
}

func NewRouter(cfg RouterConfig, analyzer Analyzer, health HealthChecker) http.Handler {
	analyzeHandler := NewAnalyzeHandler(analyzer)
	healthHandler := NewHealthHandler(health)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(Recoverer)

	r.Get("/health", healthHandler.Check)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{analysisIDHeader},
			MaxAge:         300,
		}))
		r.Use(MaxBody(cfg.MaxRequestBodyBytes))

		r.Post("/analyze", analyzeHandler.Analyze)
		r.Options("/analyze", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}
