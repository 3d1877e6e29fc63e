package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/n0tnow/Wisentia-sub006/internal/http/handlers"
	"github.com/n0tnow/Wisentia-sub006/internal/infra"
	"github.com/n0tnow/Wisentia-sub006/internal/middleware"
)

// NewRouter assembles the admin-facing API. Everything under /v1/ai requires
// an admin token; health stays public for probes.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/ai", func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))
		r.Use(middleware.RequireAdmin)

		r.Post("/generations", app.GenerationCreate)
		r.Get("/generations/{content_id}", app.GenerationStatus)
		r.Post("/generations/{content_id}/decision", app.GenerationDecision)
		r.Post("/generations/{content_id}/regenerate", app.GenerationRegenerate)
		r.Delete("/generations/{content_id}", app.GenerationDiscard)
		r.Get("/pending", app.PendingReview)
	})

	return r
}
