package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kislikjeka/userdir/internal/transport/httpapi/handler"
	"github.com/kislikjeka/userdir/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/userdir/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger         *logger.Logger
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	UserHandler    *handler.UserHandler
	HealthHandler  *handler.HealthHandler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.GetHealth)
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}

	// The username travels in the body for writes and in the path or query
	// for reads and deletes; existing clients depend on this shape.
	if cfg.UserHandler != nil {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.ListUsers)
			r.Post("/", cfg.UserHandler.CreateUser)
			r.Put("/", cfg.UserHandler.ReplaceUser)
			r.Patch("/", cfg.UserHandler.UpdateUser)
			r.Delete("/", cfg.UserHandler.DeleteUser)
			r.Get("/{username}", cfg.UserHandler.GetUser)
		})
	}

	return r
}
