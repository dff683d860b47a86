// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/constants"
	"github.com/taibuivan/netrack/internal/platform/middleware"
	requestutil "github.com/taibuivan/netrack/internal/platform/request"
	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/internal/platform/validate"
)

// Handler exposes the session-driven web login flow.
//
// The web UI is served separately; these endpoints speak form POSTs in and
// redirects out, with JSON bodies on the few GETs that carry data (such as
// the enrollment QR code).
type Handler struct {
	service     *Service
	permissions PermissionSource

	// secureCookies marks the session cookie Secure. Disabled only in
	// development, where the stack runs behind plain HTTP.
	secureCookies bool
}

// NewHandler creates a new web-flow [Handler].
func NewHandler(service *Service, permissions PermissionSource, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		permissions:   permissions,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes mounts the web flow onto the given router. The caller is
// expected to have applied [Authenticate] and [ForcePasswordChange] already.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/login", handler.loginForm)
	router.Post("/login", handler.login)
	router.Get("/login/2fa", handler.otpForm)
	router.Post("/login/2fa", handler.verifyOTP)
	router.Get("/2fa/setup", handler.beginEnrollment)
	router.Post("/2fa/verify", handler.confirmEnrollment)
	router.Post("/2fa/disable", handler.disableTwoFactor)
	router.Get("/change-password", handler.changePasswordForm)
	router.Post("/change-password", handler.changePassword)
	router.Post("/logout", handler.logout)

	router.With(RequireAuthenticated()).Get("/dashboard", handler.dashboard)
}

// # Login

func (handler *Handler) loginForm(writer http.ResponseWriter, request *http.Request) {
	// Already signed in: skip the form.
	if current := FromContext(request.Context()); current != nil && current.IsAuthenticated() {
		respond.Redirect(writer, request, "/dashboard")
		return
	}
	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Sign in with your username and password",
	})
}

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	username := requestutil.FormValue(request, FieldUsername)
	password := requestutil.FormValue(request, FieldPassword)

	validator := &validate.Validator{}
	err := validator.
		Required(FieldUsername, username).
		Required(FieldPassword, password).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	newSession, step, err := handler.service.Login(request.Context(), LoginInput{
		Username: username,
		Password: password,
		Client:   clientInfo(request),
	})
	if err != nil {
		redirectWithError(writer, request, "/login", err)
		return
	}

	handler.setSessionCookie(writer, newSession.ID)
	respond.Redirect(writer, request, stepPath(step))
}

// # Second Factor

func (handler *Handler) otpForm(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil || current.State != StateAwaitingOTP {
		respond.Redirect(writer, request, "/login")
		return
	}
	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Enter the 6-digit code from your authenticator app",
	})
}

func (handler *Handler) verifyOTP(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil {
		respond.Redirect(writer, request, "/login")
		return
	}

	code := requestutil.FormValue(request, FieldOTPCode)
	if code == "" {
		respond.Error(writer, request, validate.RequiredError(FieldOTPCode, "This field is required"))
		return
	}

	step, err := handler.service.VerifyOTP(request.Context(), current, code, clientInfo(request))
	if err != nil {
		redirectWithError(writer, request, "/login/2fa", err)
		return
	}

	respond.Redirect(writer, request, stepPath(step))
}

func (handler *Handler) beginEnrollment(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil {
		respond.Redirect(writer, request, "/login")
		return
	}

	enrollment, err := handler.service.BeginTwoFactorEnrollment(request.Context(), current)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The base32 secret is included for manual entry into authenticator
	// apps that cannot scan the QR code.
	respond.OK(writer, enrollment)
}

func (handler *Handler) confirmEnrollment(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil {
		respond.Redirect(writer, request, "/login")
		return
	}

	code := requestutil.FormValue(request, FieldOTPCode)
	if code == "" {
		respond.Error(writer, request, validate.RequiredError(FieldOTPCode, "This field is required"))
		return
	}

	step, err := handler.service.ConfirmTwoFactorEnrollment(request.Context(), current, code, clientInfo(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Redirect(writer, request, stepPath(step))
}

func (handler *Handler) disableTwoFactor(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil {
		respond.Redirect(writer, request, "/login")
		return
	}

	password := requestutil.FormValue(request, FieldPassword)
	code := requestutil.FormValue(request, FieldOTPCode)

	validator := &validate.Validator{}
	err := validator.
		Required(FieldPassword, password).
		Required(FieldOTPCode, code).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DisableTwoFactor(request.Context(), current, password, code, clientInfo(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Redirect(writer, request, "/dashboard")
}

// # Password Rotation

func (handler *Handler) changePasswordForm(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil || !current.IsAuthenticated() {
		respond.Redirect(writer, request, "/login")
		return
	}

	message := "Choose a new password"
	if current.MustChangePassword {
		message = "Your password has expired and must be changed before continuing"
	}
	respond.OK(writer, map[string]string{constants.FieldMessage: message})
}

func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil {
		respond.Redirect(writer, request, "/login")
		return
	}

	currentPassword := requestutil.FormValue(request, FieldCurrentPassword)
	newPassword := requestutil.FormValue(request, FieldNewPassword)
	confirmPassword := requestutil.FormValue(request, FieldConfirmPassword)

	validator := &validate.Validator{}
	err := validator.
		Required(FieldCurrentPassword, currentPassword).
		Password(FieldNewPassword, newPassword).
		Custom(FieldConfirmPassword, newPassword != confirmPassword, "Passwords do not match").
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), current, currentPassword, newPassword, clientInfo(request)); err != nil {
		redirectWithError(writer, request, "/change-password", err)
		return
	}

	// The old session is gone; sign in again with the new password.
	handler.clearSessionCookie(writer)
	respond.Redirect(writer, request, "/login")
}

// # Session Lifecycle

func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current != nil {
		if err := handler.service.Logout(request.Context(), current, clientInfo(request)); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	handler.clearSessionCookie(writer)
	respond.Redirect(writer, request, "/login")
}

func (handler *Handler) dashboard(writer http.ResponseWriter, request *http.Request) {
	current := FromContext(request.Context())
	if current == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	respond.OK(writer, map[string]any{
		"username":    current.Username,
		"role":        current.RoleName,
		"permissions": handler.permissions.PermissionNames(request.Context(), current.RoleName),
	})
}

// # Cookie Helpers

func (handler *Handler) setSessionCookie(writer http.ResponseWriter, sessionID string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    sessionID,
		Path:     constants.SessionCookiePath,
		MaxAge:   int(constants.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (handler *Handler) clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientInfo captures the request attributes the audit trail records.
func clientInfo(request *http.Request) Client {
	return Client{
		IPAddress: middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	}
}

// redirectWithError sends the browser back to the originating form with the
// failure message in the "error" query parameter. The message is always the
// client-safe apperr text, never raw error detail. Spaces are escaped as %20,
// not +, so the message survives naive decoding on the form side.
func redirectWithError(writer http.ResponseWriter, request *http.Request, path string, err error) {
	message := "Something went wrong"
	if ae := apperr.As(err); ae != nil {
		message = ae.Message
	}
	escaped := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	respond.Redirect(writer, request, path+"?error="+escaped)
}

// stepPath maps a flow step to its browser destination.
func stepPath(step NextStep) string {
	switch step {
	case StepOTPPrompt:
		return "/login/2fa"
	case StepTwoFactorSetup:
		return "/2fa/setup"
	case StepChangePassword:
		return "/change-password"
	default:
		return "/dashboard"
	}
}
