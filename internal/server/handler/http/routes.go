// Package http provides the admin API of the syslog keeper: listener
// management, log queries, operator accounts and AAA servers.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Listeners *ListenerHandler
	Logs      *LogHandler
	Users     *UserHandler
	AAA       *AAAHandler
	// Metrics serves the Prometheus exposition. Optional.
	Metrics http.Handler
	// RequireClientCert enables CertAuth on every route except /metrics.
	RequireClientCert bool
}

// NewRouter constructs and returns an HTTP handler that serves the admin API.
//
// Routes:
//
//	GET    /api/listeners             → Listeners.List
//	POST   /api/listeners             → Listeners.Add
//	DELETE /api/listeners/{id}        → Listeners.Remove
//	GET    /api/logs                  → Logs.List
//	GET    /api/users                 → Users.List
//	POST   /api/users                 → Users.Create
//	PATCH  /api/users/{name}          → Users.Update
//	POST   /api/users/{name}/verify   → Users.Verify
//	GET    /api/users/{name}/secret   → Users.Secret
//	GET    /api/aaa-servers           → AAA.List
//	POST   /api/aaa-servers           → AAA.Create
//	PATCH  /api/aaa-servers/{address} → AAA.Update
//	GET    /api/aaa-servers/{address}/password → AAA.Password
//	GET    /metrics                   → Metrics
//
// Middleware chain (applied in order):
//  1. RequestID, Recoverer
//  2. AllowContentType("application/json")
//  3. WithRequestLogging(logger)
//  4. CertAuth, when RequireClientCert is set
func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	if h.RequireClientCert {
		r.Use(middleware.CertAuth)
	}

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/listeners", func(r chi.Router) {
			r.Get("/", h.Listeners.List)
			r.Post("/", h.Listeners.Add)
			r.Delete("/{id}", h.Listeners.Remove)
		})
		r.Get("/logs", h.Logs.List)
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.List)
			r.Post("/", h.Users.Create)
			r.Patch("/{name}", h.Users.Update)
			r.Post("/{name}/verify", h.Users.Verify)
			r.Get("/{name}/secret", h.Users.Secret)
		})
		r.Route("/aaa-servers", func(r chi.Router) {
			r.Get("/", h.AAA.List)
			r.Post("/", h.AAA.Create)
			r.Patch("/{address}", h.AAA.Update)
			r.Get("/{address}/password", h.AAA.Password)
		})
	})

	return r
}
