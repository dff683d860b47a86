// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/netrack/internal/platform/request"
	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/internal/platform/validate"
)

// Handler exposes the role and permission administration endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new directory [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoleRoutes mounts the role endpoints onto the given router.
func (handler *Handler) RegisterRoleRoutes(router chi.Router) {
	router.Get("/", handler.listRoles)
	router.Post("/", handler.createRole)
	router.Get("/{id}", handler.getRole)
	router.Put("/{id}/permissions", handler.replacePermissions)
	router.Delete("/{id}", handler.deleteRole)
}

// RegisterPermissionRoutes mounts the permission catalogue endpoints.
func (handler *Handler) RegisterPermissionRoutes(router chi.Router) {
	router.Get("/", handler.listPermissions)
	router.Post("/", handler.createPermission)
}

// # Request Payloads

type createRoleRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PermissionIDs []string `json:"permission_ids"`
}

type replacePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

type createPermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// # Role Endpoints

func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	roles, err := handler.service.ListRoles(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, roles)
}

func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	role, err := handler.service.GetRole(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, role)
}

func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	var payload createRoleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldName, payload.Name).
		MaxLen(FieldName, payload.Name, 64).
		MaxLen(FieldDescription, payload.Description, 255)
	for _, permissionID := range payload.PermissionIDs {
		validator.UUID(FieldPermissionIDs, permissionID)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.CreateRole(request.Context(), CreateRoleInput{
		Name:          payload.Name,
		Description:   payload.Description,
		PermissionIDs: payload.PermissionIDs,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

func (handler *Handler) replacePermissions(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var payload replacePermissionsRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	for _, permissionID := range payload.PermissionIDs {
		validator.UUID(FieldPermissionIDs, permissionID)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ReplaceRolePermissions(request.Context(), id, payload.PermissionIDs); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.service.DeleteRole(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Permission Endpoints

func (handler *Handler) listPermissions(writer http.ResponseWriter, request *http.Request) {
	permissions, err := handler.service.ListPermissions(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, permissions)
}

func (handler *Handler) createPermission(writer http.ResponseWriter, request *http.Request) {
	var payload createPermissionRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required(FieldName, payload.Name).
		Permission(FieldName, payload.Name).
		MaxLen(FieldDescription, payload.Description, 255).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	permission, err := handler.service.CreatePermission(request.Context(), CreatePermissionInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, permission)
}
