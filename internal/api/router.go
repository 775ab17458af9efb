package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medops/ot-scheduling/internal/report"
	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/schedule"
	"github.com/medops/ot-scheduling/internal/surgery"
)

type RouterConfig struct {
	Surgery   *surgery.Service
	Directory *resource.Directory
	Assigner  *schedule.Assigner
	Report    *report.Service
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
	Log       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", createRequestHandler(cfg.Surgery))
		r.Get("/", listRequestsHandler(cfg.Surgery))
		r.Get("/candidates", candidatesHandler(cfg.Surgery))
		r.Get("/{id}", getRequestHandler(cfg.Surgery))
		r.Post("/{id}/transition", transitionHandler(cfg.Surgery))
	})

	r.Route("/resources", func(r chi.Router) {
		r.Post("/", createResourceHandler(cfg.Directory))
		r.Get("/", listResourcesHandler(cfg.Directory))
		r.Get("/{id}/availability", getAvailabilityHandler(cfg.Directory))
		r.Put("/{id}/availability", setAvailabilityHandler(cfg.Directory))
	})

	r.Get("/slots", listSlotsHandler(cfg.Assigner))
	r.Get("/dashboard", dashboardHandler(cfg.Report))

	return r
}
