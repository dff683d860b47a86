// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.

Two authentication schemes share the router: browser traffic carries a
session cookie, automation traffic carries a Bearer JWT. Both resolve to a
principal before the permission guards run.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/netrack/internal/audit"
	"github.com/taibuivan/netrack/internal/iam/rbac"
	"github.com/taibuivan/netrack/internal/iam/session"
	"github.com/taibuivan/netrack/internal/iam/token"
	"github.com/taibuivan/netrack/internal/iam/user"
	"github.com/taibuivan/netrack/internal/inventory/device"
	"github.com/taibuivan/netrack/internal/inventory/subnet"
	"github.com/taibuivan/netrack/internal/inventory/tag"
	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/config"
	"github.com/taibuivan/netrack/internal/platform/constants"
	"github.com/taibuivan/netrack/internal/platform/ctxutil"
	"github.com/taibuivan/netrack/internal/platform/middleware"
	"github.com/taibuivan/netrack/internal/platform/respond"
)

// # Administrative Permissions

// Permissions guarding the IAM administration surface. The inventory
// modules declare their own Permission* constants.
const (
	PermissionUserManage = "user.manage"
	PermissionRoleManage = "role.manage"
	PermissionAuditRead  = "audit.read"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Session serves the browser login flow (cookie sessions, 2FA, password change).
	Session *session.Handler

	// Token serves the API token exchange for automation clients.
	Token *token.Handler

	// User manages accounts.
	User *user.Handler

	// RBAC manages roles and the permission directory.
	RBAC *rbac.Handler

	// Audit exposes the authentication event trail.
	Audit *audit.Handler

	// Device, Subnet, and Tag are the inventory surface.
	Device *device.Handler
	Subnet *subnet.Handler
	Tag    *tag.Handler
}

// # Server Initialization

/*
NewServer constructs the chi router with the full middleware chain and
registers all route groups.

Parameters:
  - appContext: cancelled at shutdown; stops background middleware work
  - cfg: runtime configuration
  - log: the process-wide structured logger
  - verifier: validates Bearer tokens on API requests
  - sessions: resolves session cookies on every request
  - permissions: the role→permission cache backing session authorization
  - h: the full handler registry

Returns:
  - *Server: ready for ListenAndServe
*/
func NewServer(
	appContext context.Context,
	cfg *config.Config,
	log *slog.Logger,
	verifier middleware.TokenVerifier,
	sessions *session.Service,
	permissions session.PermissionSource,
	h Handlers,
) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(appContext))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(session.Authenticate(sessions))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Web Flow
	// Browser-facing login, 2FA, and password endpoints. Flagged sessions
	// are pinned to the password form before anything else runs.
	r.Group(func(web chi.Router) {
		web.Use(session.ForcePasswordChange())
		h.Session.RegisterRoutes(web)
	})

	// guard authorizes one named permission for whichever principal the
	// request carries (JWT claims or web session).
	guard := func(permission string) func(http.Handler) http.Handler {
		return requirePermission(permissions, permission)
	}

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(router chi.Router) {
			h.Token.RegisterRoutes(router)
		})

		api.Route("/users", func(router chi.Router) {
			router.Use(guard(PermissionUserManage))
			h.User.RegisterRoutes(router)
		})
		api.Route("/roles", func(router chi.Router) {
			router.Use(guard(PermissionRoleManage))
			h.RBAC.RegisterRoleRoutes(router)
		})
		api.Route("/permissions", func(router chi.Router) {
			router.Use(guard(PermissionRoleManage))
			h.RBAC.RegisterPermissionRoutes(router)
		})
		api.Route("/audit", func(router chi.Router) {
			router.Use(guard(PermissionAuditRead))
			h.Audit.RegisterRoutes(router)
		})

		api.Route("/devices", func(router chi.Router) {
			h.Device.RegisterRoutes(router, guard)
		})
		api.Route("/subnets", func(router chi.Router) {
			h.Subnet.RegisterRoutes(router, guard)
		})
		api.Route("/tags", func(router chi.Router) {
			h.Tag.RegisterRoutes(router, guard)
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Authorization

/*
requirePermission gates a route on the exact named permission, for either
kind of principal.

Description:

  - An API principal (JWT) carries its permission list frozen in the
    claims; the check is local.
  - A web principal (session) carries only its role name; the permission
    set is re-resolved through the cache on every request, so directory
    edits reach active sessions within one cache TTL.
  - No principal at all is a 401, a principal without the permission a 403.
*/
func requirePermission(permissions session.PermissionSource, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			if claims := ctxutil.GetAuthUser(request.Context()); claims != nil {
				if claims.HasPermission(name) {
					next.ServeHTTP(writer, request)
					return
				}
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			if current := session.FromContext(request.Context()); current != nil && current.IsAuthenticated() {
				for _, permission := range permissions.PermissionNames(request.Context(), current.RoleName) {
					if permission == name {
						next.ServeHTTP(writer, request)
						return
					}
				}
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		})
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
