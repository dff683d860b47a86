// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/netrack/internal/platform/request"
	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/internal/platform/validate"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// Handler exposes the administrative account endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the account endpoints onto the given router.
// Permission guards are applied by the caller at mount time.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listUsers)
	router.Post("/", handler.createUser)
	router.Get("/{id}", handler.getUser)
	router.Post("/{id}/role", handler.assignRole)
	router.Post("/{id}/force-password-change", handler.forcePasswordChange)
}

// # Request Payloads

type createUserRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	RoleID           string `json:"role_id"`
	RequireTwoFactor bool   `json:"require_two_factor"`
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

// # Endpoints

func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var payload createUserRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required(FieldUsername, payload.Username).
		MaxLen(FieldUsername, payload.Username, 64).
		Password(FieldPassword, payload.Password).
		Required(FieldRoleID, payload.RoleID).
		UUID(FieldRoleID, payload.RoleID).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.service.Create(request.Context(), CreateInput{
		Username:         payload.Username,
		Password:         payload.Password,
		RoleID:           payload.RoleID,
		RequireTwoFactor: payload.RequireTwoFactor,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	account, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

func (handler *Handler) assignRole(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var payload assignRoleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required(FieldRoleID, payload.RoleID).
		UUID(FieldRoleID, payload.RoleID).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.AssignRole(request.Context(), id, payload.RoleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) forcePasswordChange(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.service.ForcePasswordChange(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
