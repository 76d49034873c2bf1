package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/catalog/internal/identity"
	"github.com/odyssey-erp/catalog/internal/observability"
	"github.com/odyssey-erp/catalog/internal/platform/httpx"
	"github.com/odyssey-erp/catalog/internal/products"
	"github.com/odyssey-erp/catalog/internal/shared"
	"github.com/odyssey-erp/catalog/jobs"
)

// Route prefixes shared by both processes.
const (
	AccountPrefix     = "/api/account"
	ProductPrefix     = "/api/product"
	JobsPrefix        = "/jobs"
	DashboardRootPath = "/jobs/dashboard"
	LoginPath         = AccountPrefix + "/login"
	AccessDeniedPath  = AccountPrefix + "/access-denied"
)

// RouterParams groups dependencies for building the HTTP routers.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Errors         *httpx.ErrorMapper
	SessionManager *shared.SessionManager
	Authenticator  *identity.Authenticator
	Metrics        *observability.Metrics
	Probes         []Probe

	AccountHandler *identity.AccountHandler
	ProductHandler *products.Handler

	JobHandler *jobs.Handler
	// Dashboard serves the job dashboard below DashboardRootPath.
	Dashboard http.Handler
}

// NewRouter constructs the API router.
func NewRouter(params RouterParams) http.Handler {
	params = params.withDefaults()
	r := newBaseRouter(params, "")

	if params.AccountHandler != nil {
		r.Route(AccountPrefix, params.AccountHandler.MountRoutes)
	}
	if params.ProductHandler != nil {
		r.Route(ProductPrefix, func(r chi.Router) {
			r.Use(identity.Authorize(params.Errors, identity.RequireRole(identity.RoleUser)))
			params.ProductHandler.MountRoutes(r)
		})
	}
	return r
}

// NewWorkerRouter constructs the router of the worker process: queue health
// and the job dashboard, which is reserved to the dashboard role.
func NewWorkerRouter(params RouterParams) http.Handler {
	params = params.withDefaults()
	r := newBaseRouter(params, dashboardCSP)

	if params.AccountHandler != nil {
		r.Route(AccountPrefix, params.AccountHandler.MountRoutes)
	}
	r.Route(JobsPrefix, func(r chi.Router) {
		if params.JobHandler != nil {
			params.JobHandler.MountRoutes(r)
		}
		if params.Dashboard != nil {
			guard := identity.AuthorizeBrowser(LoginPath, AccessDeniedPath, identity.RequireRole(identity.RoleJobsDashboard))
			r.With(guard).Handle(strings.TrimPrefix(DashboardRootPath, JobsPrefix)+"*", params.Dashboard)
		}
	})
	return r
}

func (p RouterParams) withDefaults() RouterParams {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Config == nil {
		p.Config = &Config{}
	}
	if p.Errors == nil {
		p.Errors = httpx.NewErrorMapper(p.Logger, p.Config.IsDevelopment())
	}
	return p
}

// The dashboard is a single page application with inline bootstrap code.
const dashboardCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

func newBaseRouter(params RouterParams, csp string) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:                params.Logger,
		Config:                params.Config,
		Errors:                params.Errors,
		SessionManager:        params.SessionManager,
		Authenticator:         params.Authenticator,
		Metrics:               params.Metrics,
		ContentSecurityPolicy: csp,
	}) {
		r.Use(mw)
	}
	r.NotFound(params.Errors.NotFound)
	r.MethodNotAllowed(params.Errors.MethodNotAllowed)

	r.Get("/health", HealthHandler(params.Probes, params.Config.IsDevelopment()))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
