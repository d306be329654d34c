// Package main provides the API router setup.
package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/helpdesk-kb/kbresolver/cmd/kb-api/handlers"
	"github.com/helpdesk-kb/kbresolver/cmd/kb-api/middleware"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
)

// AppConfig holds router configuration.
type AppConfig struct {
	RequestTimeout   time.Duration
	AllowedOrigins   []string
	MaxMessageLength int
	ServiceName      string
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// DefaultAppConfig returns default configuration values.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		RequestTimeout:   60 * time.Second,
		AllowedOrigins:   []string{"*"},
		MaxMessageLength: 1000,
		ServiceName:      "kb-resolver",
	}
}

// NewRouter creates the API router. Every endpoint is served both at the
// root and under /api.
func NewRouter(logger *observability.Logger, cfg *AppConfig, resolver handlers.Resolver, completer handlers.Completer) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	chatHandler := handlers.NewChatHandler(logger, resolver, cfg.MaxMessageLength)
	statusHandler := handlers.NewStatusHandler(logger, resolver, cfg.ServiceName)
	llmHandler := handlers.NewLLMHandler(logger, completer)

	r.Get("/health", statusHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	routes := func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat)
		r.Post("/chat/llm", llmHandler.Complete)
		r.Get("/status", statusHandler.Status)
	}
	routes(r)
	r.Route("/api", routes)

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Route not found"})
}
