package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Nbras002/MHV-PS/internal/activity"
	"github.com/Nbras002/MHV-PS/internal/auth"
	"github.com/Nbras002/MHV-PS/internal/observability"
	"github.com/Nbras002/MHV-PS/internal/permits"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/regions"
	"github.com/Nbras002/MHV-PS/internal/shared"
	"github.com/Nbras002/MHV-PS/internal/stats"
	"github.com/Nbras002/MHV-PS/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	PermitsHandler  *permits.Handler
	ActivityHandler *activity.Handler
	RolesHandler    *rbac.Handler
	RegionsHandler  *regions.Handler
	StatsHandler    *stats.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/permits", params.PermitsHandler.MountRoutes)
		r.Route("/activity", params.ActivityHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/regions", params.RegionsHandler.MountRoutes)
		r.Route("/stats", params.StatsHandler.MountRoutes)
	})

	return r
}
