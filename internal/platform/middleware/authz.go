// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/netrack/internal/platform/ctxutil"
	"github.com/taibuivan/netrack/internal/platform/sec"
)

// # Token Verification

// TokenVerifier abstracts JWT verification so that tests can substitute a
// deterministic implementation for [sec.TokenService].
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}

/*
Authenticate extracts and verifies the Bearer token on API requests.

Behavior:

  - No Authorization header: the request continues as anonymous. Route-level
    guards (RequireAuth, RequirePermission) decide whether that is acceptable.
  - Invalid, expired, or tampered token: 401 with a generic message. The
    concrete verification failure is logged server-side only.
  - Token bound to an IP allowlist: the client address must match one of the
    embedded entries, otherwise the token is rejected as if invalid.

On success the verified claims are placed into the request context.
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check for the presence of credentials
			authHeader := request.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Enforce the Bearer scheme
			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header format")
				return
			}
			tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])

			// 3. Verify signature and expiry
			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				logger := ctxutil.GetLogger(request.Context())
				logger.WarnContext(request.Context(), "token_verification_failed",
					slog.String("ip", RealIP(request)),
					slog.Any("error", err),
				)
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}

			// 4. Enforce the optional IP allowlist baked into the token
			if len(claims.AllowedIPs) > 0 && !ipAllowed(RealIP(request), claims.AllowedIPs) {
				logger := ctxutil.GetLogger(request.Context())
				logger.WarnContext(request.Context(), "token_ip_rejected",
					slog.String("ip", RealIP(request)),
					slog.String("user_id", claims.UserID),
				)
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}

			// 5. Attach the verified identity to the context
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Route Guards

// RequireAuth rejects anonymous requests. It must be mounted after Authenticate.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			if ctxutil.GetAuthUser(request.Context()) == nil {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireRole allows only principals whose role matches one of the given names.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(writer, request)
					return
				}
			}

			writeError(writer, http.StatusForbidden, "FORBIDDEN", "Insufficient role")
		})
	}
}

/*
RequirePermission allows only principals that hold the exact named permission.

The decision reads the permission list embedded in the verified token, so no
database round-trip happens here. A missing permission yields 403; a missing
principal yields 401. Matching is exact string equality (e.g. "device.update"
never implies "device.delete").
*/
func RequirePermission(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if !claims.HasPermission(name) {
				logger := ctxutil.GetLogger(request.Context())
				logger.WarnContext(request.Context(), "permission_denied",
					slog.String("user_id", claims.UserID),
					slog.String("permission", name),
				)
				writeError(writer, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// ipAllowed reports whether clientIP appears in the allowlist.
func ipAllowed(clientIP string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == clientIP {
			return true
		}
	}
	return false
}
