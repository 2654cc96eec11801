// Package router wires the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/benefitsnav/carl-assistant/internal/api/handlers"
	"github.com/benefitsnav/carl-assistant/internal/chat"
	httpmiddleware "github.com/benefitsnav/carl-assistant/internal/http/middleware"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	AssistantHandler   *handlers.AssistantHandler
	ChatHandler        *chat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.AssistantHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1/assistant", func(r chi.Router) {
		r.Post("/search", cfg.AssistantHandler.Search)
		r.Post("/warmup", cfg.AssistantHandler.Warmup)
	})

	if cfg.ChatHandler != nil {
		r.Get("/v1/assistant/ws", cfg.ChatHandler.HandleWebSocket)
	}

	return r
}
