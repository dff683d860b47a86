package tag

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/netrack/internal/platform/request"
	"github.com/taibuivan/netrack/internal/platform/respond"
	"github.com/taibuivan/netrack/internal/platform/validate"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// Handler exposes the tag endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new tag [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

const (
	PermissionRead   = "tag.read"
	PermissionCreate = "tag.create"
	PermissionUpdate = "tag.update"
	PermissionDelete = "tag.delete"
)

// RegisterRoutes mounts the tag endpoints with per-verb permission guards.
func (handler *Handler) RegisterRoutes(router chi.Router, guard func(permission string) func(http.Handler) http.Handler) {
	router.With(guard(PermissionRead)).Get("/", handler.list)
	router.With(guard(PermissionRead)).Get("/{id}", handler.get)
	router.With(guard(PermissionCreate)).Post("/", handler.create)
	router.With(guard(PermissionDelete)).Delete("/{id}", handler.remove)

	// Device association endpoints. Changing what a device is tagged with is
	// an update to the tagging, hence tag.update.
	router.With(guard(PermissionRead)).Get("/device/{deviceID}", handler.listForDevice)
	router.With(guard(PermissionUpdate)).Put("/device/{deviceID}/{id}", handler.attach)
	router.With(guard(PermissionUpdate)).Delete("/device/{deviceID}/{id}", handler.detach)
}

type tagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (payload *tagRequest) validate() error {
	validator := &validate.Validator{}
	validator.
		Required(FieldName, payload.Name).
		MaxLen(FieldName, payload.Name, 64).
		MaxLen(FieldDescription, payload.Description, 500)
	return validator.Err()
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	tags, total, err := handler.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, tags, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	tag, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tag)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var payload tagRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := payload.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tag, err := handler.service.Create(request.Context(), payload.Name, payload.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, tag)
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) listForDevice(writer http.ResponseWriter, request *http.Request) {
	tags, err := handler.service.TagsForDevice(request.Context(), requestutil.ID(request, "deviceID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tags)
}

func (handler *Handler) attach(writer http.ResponseWriter, request *http.Request) {
	err := handler.service.Attach(request.Context(),
		requestutil.ID(request, "deviceID"), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) detach(writer http.ResponseWriter, request *http.Request) {
	err := handler.service.Detach(request.Context(),
		requestutil.ID(request, "deviceID"), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
