package tag

import (
	"context"
	"log/slog"

	"github.com/taibuivan/netrack/pkg/pagination"
	"github.com/taibuivan/netrack/pkg/slug"
	"github.com/taibuivan/netrack/pkg/uuid"
)

// Service implements the tag use cases.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new tag [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

// Create registers a new tag. The slug is derived from the name once and
// never changes afterwards.
func (service *Service) Create(context context.Context, name, description string) (*Tag, error) {
	tag := &Tag{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug.From(name),
		Description: description,
	}

	if err := service.repository.Create(context, tag); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "tag_created",
		slog.String("tag_id", tag.ID),
		slog.String("slug", tag.Slug),
	)

	return tag, nil
}

// Get retrieves a single tag by ID.
func (service *Service) Get(context context.Context, id string) (*Tag, error) {
	return service.repository.FindByID(context, id)
}

// GetBySlug retrieves a single tag by its slug.
func (service *Service) GetBySlug(context context.Context, value string) (*Tag, error) {
	return service.repository.FindBySlug(context, value)
}

// List returns a page of tags plus the total count.
func (service *Service) List(context context.Context, params pagination.Params) ([]*Tag, int, error) {
	return service.repository.List(context, params)
}

// Delete removes a tag and all of its device associations.
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.repository.Delete(context, id); err != nil {
		return err
	}

	service.logger.InfoContext(context, "tag_deleted", slog.String("tag_id", id))
	return nil
}

// Attach labels a device with a tag. Attaching twice is a no-op.
func (service *Service) Attach(context context.Context, deviceID, tagID string) error {
	return service.repository.Attach(context, deviceID, tagID)
}

// Detach removes a tag from a device.
func (service *Service) Detach(context context.Context, deviceID, tagID string) error {
	return service.repository.Detach(context, deviceID, tagID)
}

// TagsForDevice lists the tags attached to one device.
func (service *Service) TagsForDevice(context context.Context, deviceID string) ([]*Tag, error) {
	return service.repository.TagsForDevice(context, deviceID)
}
