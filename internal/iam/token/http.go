// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package token

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/netrack/internal/iam/user"
	"github.com/taibuivan/netrack/internal/platform/middleware"
	requestutil "github.com/taibuivan/netrack/internal/platform/request"
	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/internal/platform/validate"
)

// Handler exposes the API authentication endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new token [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the token endpoints onto the given router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/login", handler.login)
	router.Get("/me", handler.me)
}

// # Request Payloads

type loginRequest struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	OTPCode    string   `json:"totp,omitempty"`
	AllowedIPs []string `json:"allowed_ips,omitempty"`
}

// # Endpoints

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var payload loginRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(user.FieldUsername, payload.Username).
		Required(user.FieldPassword, payload.Password)
	for _, allowedIP := range payload.AllowedIPs {
		validator.IP("allowed_ips", allowedIP)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.service.Issue(request.Context(), IssueInput{
		Username:   payload.Username,
		Password:   payload.Password,
		OTPCode:    payload.OTPCode,
		AllowedIPs: payload.AllowedIPs,
		IPAddress:  middleware.RealIP(request),
		UserAgent:  request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, issued)
}

// me echoes the verified claims of the presented token. Useful for clients
// to inspect which permissions their token actually carries.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"user_id":     claims.UserID,
		"username":    claims.Username,
		"role":        claims.Role,
		"permissions": claims.Permissions,
		"expires_at":  claims.ExpiresAt,
	})
}
