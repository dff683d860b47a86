// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"net/http"

	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/constants"
	"github.com/taibuivan/netrack/internal/platform/ctxkey"
	"github.com/taibuivan/netrack/internal/platform/respond"
)

// PermissionSource resolves a role name to its permission names. Satisfied by
// the permission cache.
type PermissionSource interface {
	PermissionNames(context context.Context, roleName string) []string
}

// # Context Plumbing

// WithSession returns a new context with the session attached.
func WithSession(ctx context.Context, current *Session) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, current)
}

// FromContext retrieves the session from the context, or nil.
func FromContext(ctx context.Context) *Session {
	current, ok := ctx.Value(ctxkey.KeySession).(*Session)
	if !ok {
		return nil
	}
	return current
}

// # Middleware

/*
Authenticate resolves the session cookie on every web request.

Behavior:

  - No cookie, or an unknown/expired session ID: the request continues as
    anonymous. Route guards decide whether that is acceptable.
  - A resolvable session (in ANY state) is attached to the context; the
    intermediate login states need it to reach their completion endpoints.
*/
func Authenticate(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			cookie, err := request.Cookie(constants.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			current, err := service.Find(request.Context(), cookie.Value)
			if err != nil {
				// Dead cookie: proceed anonymous and let the browser replace it at next login.
				next.ServeHTTP(writer, request)
				return
			}

			ctx := WithSession(request.Context(), current)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuthenticated gates a route on a fully authenticated session.
// Sessions stuck in an intermediate login state are sent back to the screen
// that completes it.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			current := FromContext(request.Context())
			if current == nil {
				respond.Redirect(writer, request, "/login")
				return
			}

			switch current.State {
			case StateAuthenticated:
				next.ServeHTTP(writer, request)
			case StateAwaitingOTP:
				respond.Redirect(writer, request, "/login/2fa")
			case StateAwaitingSetup:
				respond.Redirect(writer, request, "/2fa/setup")
			default:
				respond.Redirect(writer, request, "/login")
			}
		})
	}
}

// ForcePasswordChange pins flagged sessions to the password form. Only the
// form itself and logout remain reachable until the password is rotated.
func ForcePasswordChange() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			current := FromContext(request.Context())
			if current != nil && current.IsAuthenticated() && current.MustChangePassword {
				switch request.URL.Path {
				case "/change-password", "/logout":
					// Allowed through.
				default:
					respond.Redirect(writer, request, "/change-password")
					return
				}
			}

			next.ServeHTTP(writer, request)
		})
	}
}

/*
RequirePermission gates a web route on the exact named permission.

Description: The session stores only the role name; the permission set is
re-resolved through the cache on EVERY request, so directory edits reach
active sessions within one cache TTL. A cache answering with an empty set
(directory outage, unknown role) therefore denies — fail closed.
*/
func RequirePermission(source PermissionSource, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			current := FromContext(request.Context())
			if current == nil || !current.IsAuthenticated() {
				respond.Redirect(writer, request, "/login")
				return
			}

			for _, permission := range source.PermissionNames(request.Context(), current.RoleName) {
				if permission == name {
					next.ServeHTTP(writer, request)
					return
				}
			}

			respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
		})
	}
}
