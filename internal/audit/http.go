// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// Handler exposes the audit trail read endpoint.
type Handler struct {
	service *Service
}

// NewHandler creates a new audit [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the audit endpoints onto the given router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listEntries)
}

func (handler *Handler) listEntries(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	query := request.URL.Query()
	filter := Filter{
		Username: query.Get("username"),
		Action:   query.Get("action"),
		Status:   query.Get("status"),
	}

	entries, total, err := handler.service.List(request.Context(), params, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(params.Page, params.Limit, total))
}
