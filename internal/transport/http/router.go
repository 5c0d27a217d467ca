// Package httptransport assembles the HTTP surface: middleware chain,
// public auth routes, the authenticated /v1 API, and the operator /admin
// API.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analysishandler "lexdraft/internal/analysis/handler"
	audithandler "lexdraft/internal/audit/handler"
	authhandler "lexdraft/internal/auth/handler"
	clausehandler "lexdraft/internal/clause/handler"
	documenthandler "lexdraft/internal/document/handler"
	exporthandler "lexdraft/internal/export/handler"
	redlinehandler "lexdraft/internal/redline/handler"
	searchhandler "lexdraft/internal/search/handler"
	tenanthandler "lexdraft/internal/tenant/handler"
	versionhandler "lexdraft/internal/version/handler"

	"lexdraft/internal/platform/metrics"
	"lexdraft/internal/platform/middleware"
)

// requestTimeout bounds API requests. Export rendering carries its own
// shorter timeout inside the export package.
const requestTimeout = 60 * time.Second

// Handlers collects the per-domain handlers the router mounts.
type Handlers struct {
	Auth     *authhandler.Handler
	Tenant   *tenanthandler.Handler
	Audit    *audithandler.Handler
	Document *documenthandler.Handler
	Version  *versionhandler.Handler
	Clause   *clausehandler.Handler
	Analysis *analysishandler.Handler
	Redline  *redlinehandler.Handler
	Export   *exporthandler.Handler
	Search   *searchhandler.Handler
}

// Deps are the cross-cutting dependencies of the router.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Tokens     middleware.TokenValidator
	AdminToken string
}

// NewRouter wires the middleware chain and mounts every handler.
func NewRouter(deps Deps, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Login and registration sit outside the auth gate.
	r.Group(func(r chi.Router) {
		h.Auth.RegisterPublic(r)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Tokens, deps.Logger))
		h.Auth.RegisterProtected(r)
		h.Document.Register(r)
		h.Version.Register(r)
		h.Clause.Register(r)
		h.Analysis.Register(r)
		h.Redline.Register(r)
		h.Export.Register(r)
		h.Search.Register(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(deps.AdminToken, deps.Logger))
		h.Tenant.Register(r)
		h.Audit.Register(r)
	})

	return r
}
