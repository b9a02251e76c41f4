package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/neoguard/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/neoguard/internal/api/middleware"
)

// RouterConfig carries everything NewRouter wires into the route tree.
type RouterConfig struct {
	Service        handlers.GenerationService
	Logger         *slog.Logger
	APIPrefix      string        // e.g. "/api/v1"
	RequestTimeout time.Duration // per-request deadline; 0 disables it
	StaticDir      string        // served at / when the directory exists
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(apmiddleware.CORS)

	// Health check: never touches a provider
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	generationHandler := handlers.NewGenerationHandler(cfg.Service, logger)
	r.Route(cfg.APIPrefix, func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Route("/generation", func(r chi.Router) {
			r.Get("/models", generationHandler.ListModels)      // GET /api/v1/generation/models
			r.Get("/edit-info", generationHandler.EditInfo)     // GET /api/v1/generation/edit-info
			r.Post("/openai/edit", generationHandler.EditImage) // POST /api/v1/generation/openai/edit
			r.Post("/{provider}", generationHandler.Generate)   // POST /api/v1/generation/{provider}

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", generationHandler.CreateConversation)       // POST /api/v1/generation/conversations
				r.Get("/{id}", generationHandler.GetConversation)       // GET /api/v1/generation/conversations/{id}
				r.Delete("/{id}", generationHandler.DeleteConversation) // DELETE /api/v1/generation/conversations/{id}
			})
		})
	})

	// Static UI is mounted last so it never shadows /health or the API.
	if info, err := os.Stat(cfg.StaticDir); cfg.StaticDir != "" && err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
