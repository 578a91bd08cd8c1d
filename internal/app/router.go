package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fruitline/fruitline/internal/auth"
	"github.com/fruitline/fruitline/internal/dispatch"
	"github.com/fruitline/fruitline/internal/observability"
	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/pos"
	"github.com/fruitline/fruitline/internal/sales"
	"github.com/fruitline/fruitline/internal/shared"
	"github.com/fruitline/fruitline/jobs"
	"github.com/fruitline/fruitline/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler  *auth.Handler
	TripHandler  *dispatch.Handler
	SheetHandler *report.Handler
	POSHandler   *pos.Handler
	SalesHandler *sales.Handler
	JobHandler   *jobs.Handler
}

// NewRouter constructs the chi.Router with Fruitline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/session", params.AuthHandler.MountSessionRoutes)
		r.Route("/trips", func(r chi.Router) {
			params.TripHandler.MountRoutes(r)
			if params.SheetHandler != nil {
				params.SheetHandler.MountRoutes(r)
			}
		})
		r.Route("/pos", params.POSHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such endpoint")
		})
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
