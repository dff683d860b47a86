// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/netrack/internal/platform/ctxutil"
	"github.com/taibuivan/netrack/internal/platform/middleware"
	"github.com/taibuivan/netrack/internal/platform/sec"
)

// fakeVerifier returns canned claims for one token string and rejects
// everything else.
type fakeVerifier struct {
	token  string
	claims *sec.AuthClaims
}

func (verifier *fakeVerifier) VerifyToken(tokenString string) (*sec.AuthClaims, error) {
	if tokenString == verifier.token {
		return verifier.claims, nil
	}
	return nil, errors.New("sec: invalid token")
}

// echoPrincipal writes 200 and records the claims it saw.
func echoPrincipal(seen **sec.AuthClaims) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*seen = ctxutil.GetAuthUser(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestAuthenticate_AnonymousPassthrough verifies that requests without an
Authorization header continue as anonymous.
*/
func TestAuthenticate_AnonymousPassthrough(t *testing.T) {
	var seen *sec.AuthClaims
	handler := middleware.Authenticate(&fakeVerifier{})(echoPrincipal(&seen))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, seen)
}

/*
TestAuthenticate_ValidToken verifies that verified claims reach the handler.
*/
func TestAuthenticate_ValidToken(t *testing.T) {
	claims := &sec.AuthClaims{UserID: "user-1", Username: "alice", Role: "operator"}
	verifier := &fakeVerifier{token: "good-token", claims: claims}

	var seen *sec.AuthClaims
	handler := middleware.Authenticate(verifier)(echoPrincipal(&seen))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	request.Header.Set("Authorization", "Bearer good-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
}

/*
TestAuthenticate_Failures covers the uniform 401 responses: malformed
header, bad token, and IP-pinned token used from the wrong address.
*/
func TestAuthenticate_Failures(t *testing.T) {
	pinned := &sec.AuthClaims{UserID: "user-1", AllowedIPs: []string{"10.0.0.5"}}
	verifier := &fakeVerifier{token: "pinned-token", claims: pinned}

	tests := []struct {
		name   string
		header string
		realIP string
	}{
		{"missing_bearer_prefix", "Token abc", ""},
		{"unknown_token", "Bearer forged-token", ""},
		{"wrong_client_ip", "Bearer pinned-token", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *sec.AuthClaims
			handler := middleware.Authenticate(verifier)(echoPrincipal(&seen))

			request := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
			request.Header.Set("Authorization", tt.header)
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Nil(t, seen)
		})
	}
}

/*
TestAuthenticate_AllowedIP verifies that an IP-pinned token works from a
listed address.
*/
func TestAuthenticate_AllowedIP(t *testing.T) {
	pinned := &sec.AuthClaims{UserID: "user-1", AllowedIPs: []string{"10.0.0.5"}}
	verifier := &fakeVerifier{token: "pinned-token", claims: pinned}

	var seen *sec.AuthClaims
	handler := middleware.Authenticate(verifier)(echoPrincipal(&seen))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	request.Header.Set("Authorization", "Bearer pinned-token")
	request.Header.Set("X-Real-IP", "10.0.0.5")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seen)
}

/*
TestRequirePermission checks the exact-match route guard.
*/
func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		claims     *sec.AuthClaims
		permission string
		wantStatus int
	}{
		{
			"anonymous_is_401",
			nil,
			"device.read",
			http.StatusUnauthorized,
		},
		{
			"holder_passes",
			&sec.AuthClaims{UserID: "u", Permissions: []string{"device.read"}},
			"device.read",
			http.StatusOK,
		},
		{
			"missing_permission_is_403",
			&sec.AuthClaims{UserID: "u", Permissions: []string{"device.read"}},
			"device.delete",
			http.StatusForbidden,
		},
		{
			"no_wildcard_expansion",
			&sec.AuthClaims{UserID: "u", Permissions: []string{"device.*"}},
			"device.read",
			http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequirePermission(tt.permission)(
				http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
					writer.WriteHeader(http.StatusOK)
				}),
			)

			request := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
			if tt.claims != nil {
				request = request.WithContext(ctxutil.WithAuthUser(request.Context(), tt.claims))
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

/*
TestRequireRole checks the role-membership route guard.
*/
func TestRequireRole(t *testing.T) {
	guarded := middleware.RequireRole("administrator", "operator")(
		http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}),
	)

	// 1. Matching role passes
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{Role: "operator"}))
	recorder := httptest.NewRecorder()
	guarded.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// 2. Unlisted role is 403
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{Role: "viewer"}))
	recorder = httptest.NewRecorder()
	guarded.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// 3. Anonymous is 401
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	recorder = httptest.NewRecorder()
	guarded.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestRequestID verifies correlation ID generation and client passthrough.
*/
func TestRequestID(t *testing.T) {
	var captured string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		captured = ctxutil.GetRequestID(request.Context())
	}))

	// 1. A missing ID is generated
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, recorder.Header().Get("X-Request-ID"))

	// 2. A client-provided ID is preserved
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "client-supplied")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "client-supplied", captured)
}

/*
TestRealIP checks proxy header precedence for client address resolution.
*/
func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.1:51234"

	// 1. Falls back to the socket address
	assert.Equal(t, "192.0.2.1", middleware.RealIP(request))

	// 2. X-Forwarded-For takes the first hop
	request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", middleware.RealIP(request))

	// 3. X-Real-IP wins over everything
	request.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", middleware.RealIP(request))
}

/*
TestPanicRecovery ensures a panicking handler yields a 500 instead of
killing the server.
*/
func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		panic("boom")
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(recorder, request)
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
