// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package device

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/netrack/internal/platform/request"
	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/internal/platform/validate"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// Handler exposes the device inventory endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new device [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Guard names the permission protecting each route group. The server wires
// these into the authorization middleware at mount time.
const (
	PermissionRead   = "device.read"
	PermissionCreate = "device.create"
	PermissionUpdate = "device.update"
	PermissionDelete = "device.delete"
)

// RegisterRoutes mounts the device endpoints with per-verb permission guards.
//
// The guard function receives the permission name and returns a middleware;
// the same shape serves both token- and session-authenticated routers.
func (handler *Handler) RegisterRoutes(router chi.Router, guard func(permission string) func(http.Handler) http.Handler) {
	router.With(guard(PermissionRead)).Get("/", handler.list)
	router.With(guard(PermissionRead)).Get("/{id}", handler.get)
	router.With(guard(PermissionCreate)).Post("/", handler.create)
	router.With(guard(PermissionUpdate)).Put("/{id}", handler.update)
	router.With(guard(PermissionDelete)).Delete("/{id}", handler.remove)
}

// # Request Payloads

type deviceRequest struct {
	Name         string  `json:"name"`
	Hostname     string  `json:"hostname"`
	ManagementIP string  `json:"management_ip"`
	SubnetID     *string `json:"subnet_id,omitempty"`
	Vendor       string  `json:"vendor"`
	Model        string  `json:"model"`
	Location     string  `json:"location"`
	Status       string  `json:"status"`
	Notes        string  `json:"notes"`
}

func (payload *deviceRequest) validate() error {
	validator := &validate.Validator{}
	validator.
		Required(FieldName, payload.Name).
		MaxLen(FieldName, payload.Name, 128).
		Required(FieldManagementIP, payload.ManagementIP).
		IP(FieldManagementIP, payload.ManagementIP).
		MaxLen(FieldHostname, payload.Hostname, 255).
		MaxLen(FieldNotes, payload.Notes, 2000)
	if payload.Status != "" {
		validator.OneOf(FieldStatus, payload.Status, Statuses...)
	}
	if payload.SubnetID != nil {
		validator.UUID(FieldSubnetID, *payload.SubnetID)
	}
	return validator.Err()
}

func (payload *deviceRequest) toInput() Input {
	return Input{
		Name:         payload.Name,
		Hostname:     payload.Hostname,
		ManagementIP: payload.ManagementIP,
		SubnetID:     payload.SubnetID,
		Vendor:       payload.Vendor,
		Model:        payload.Model,
		Location:     payload.Location,
		Status:       payload.Status,
		Notes:        payload.Notes,
	}
}

// # Endpoints

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()
	filter := Filter{
		Status:   query.Get("status"),
		SubnetID: query.Get("subnet_id"),
	}

	devices, total, err := handler.service.List(request.Context(), params, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, devices, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	device, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, device)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var payload deviceRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	device, err := handler.service.Create(request.Context(), payload.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, device)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var payload deviceRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	device, err := handler.service.Update(request.Context(), requestutil.ID(request, "id"), payload.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, device)
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
