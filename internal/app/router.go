package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/haulpoint/haulpoint/internal/approval"
	"github.com/haulpoint/haulpoint/internal/authz"
	"github.com/haulpoint/haulpoint/internal/guard"
	"github.com/haulpoint/haulpoint/internal/identity"
	"github.com/haulpoint/haulpoint/internal/observability"
	"github.com/haulpoint/haulpoint/internal/roles"
	"github.com/haulpoint/haulpoint/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Identity        identity.Middleware
	Authz           authz.Middleware
	ApprovalHandler *approval.Handler
	RolesHandler    *roles.Handler
	JobsHandler     *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router. Guard order on tenant-scoped routes is
// fixed: company guard first, then scope guard, then permission checks.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Identity: params.Identity,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	company := guard.CompanyGuard{Logger: params.Logger}
	scope := guard.ScopeGuard{Logger: params.Logger}

	r.Route("/api", func(r chi.Router) {
		if params.ApprovalHandler != nil {
			params.ApprovalHandler.WithPermit(params.Authz.RequirePermission)
			r.Route("/approval", func(r chi.Router) {
				r.Use(company.Handler)
				r.Use(scope.Handler)
				params.ApprovalHandler.MountRoutes(r)
			})
		}
		if params.RolesHandler != nil {
			params.RolesHandler.WithPermit(params.Authz.RequirePermission)
			r.Route("/roles", func(r chi.Router) {
				params.RolesHandler.MountRoutes(r)
			})
		}
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
