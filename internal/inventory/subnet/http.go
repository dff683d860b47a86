// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subnet

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/netrack/internal/platform/request"
	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/internal/platform/validate"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// Handler exposes the subnet inventory endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new subnet [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

const (
	PermissionRead   = "subnet.read"
	PermissionCreate = "subnet.create"
	PermissionUpdate = "subnet.update"
	PermissionDelete = "subnet.delete"
)

// RegisterRoutes mounts the subnet endpoints with per-verb permission guards.
func (handler *Handler) RegisterRoutes(router chi.Router, guard func(permission string) func(http.Handler) http.Handler) {
	router.With(guard(PermissionRead)).Get("/", handler.list)
	router.With(guard(PermissionRead)).Get("/{id}", handler.get)
	router.With(guard(PermissionCreate)).Post("/", handler.create)
	router.With(guard(PermissionUpdate)).Put("/{id}", handler.update)
	router.With(guard(PermissionDelete)).Delete("/{id}", handler.remove)
}

// # Request Payloads

type subnetRequest struct {
	Name        string `json:"name"`
	CIDR        string `json:"cidr"`
	VLANID      int    `json:"vlan_id"`
	Description string `json:"description"`
}

func (payload *subnetRequest) validate() error {
	validator := &validate.Validator{}
	validator.
		Required(FieldName, payload.Name).
		MaxLen(FieldName, payload.Name, 128).
		Required(FieldCIDR, payload.CIDR).
		CIDR(FieldCIDR, payload.CIDR).
		Range(FieldVLANID, payload.VLANID, 0, 4094).
		MaxLen(FieldDescription, payload.Description, 2000)
	return validator.Err()
}

func (payload *subnetRequest) toInput() Input {
	return Input{
		Name:        payload.Name,
		CIDR:        payload.CIDR,
		VLANID:      payload.VLANID,
		Description: payload.Description,
	}
}

// # Endpoints

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	subnets, total, err := handler.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, subnets, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	subnet, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, subnet)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var payload subnetRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subnet, err := handler.service.Create(request.Context(), payload.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, subnet)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var payload subnetRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subnet, err := handler.service.Update(request.Context(), requestutil.ID(request, "id"), payload.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subnet)
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
