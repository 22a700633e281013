package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/procurewatch/reconciler/internal/config"
	"github.com/procurewatch/reconciler/internal/reconcile"
	"github.com/procurewatch/reconciler/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	repo *repository.ComparisonRepo,
	svc *reconcile.Service,
	dbCfg config.DatabaseConfig,
) http.Handler {
	h := &Handlers{
		repo:  repo,
		svc:   svc,
		dbCfg: dbCfg,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Comparisons.
		r.Post("/comparisons", h.RunComparison)
		r.Get("/comparisons", h.ListComparisons)
		r.Get("/comparisons/{id}", h.GetComparison)

		// Statistics.
		r.Get("/statistics", h.GetStatistics)

		// Maintenance.
		r.Post("/maintenance/cleanup", h.Cleanup)
	})

	return r
}
