package tag

import (
	"context"

	"github.com/taibuivan/netrack/pkg/pagination"
)

// Repository defines the persistence contract for device tags.
type Repository interface {
	Create(context context.Context, tag *Tag) error
	FindByID(context context.Context, id string) (*Tag, error)
	FindBySlug(context context.Context, slug string) (*Tag, error)
	List(context context.Context, params pagination.Params) ([]*Tag, int, error)
	Delete(context context.Context, id string) error

	// Attach and Detach manage the device/tag association. Attaching an
	// already-attached pair is a no-op.
	Attach(context context.Context, deviceID, tagID string) error
	Detach(context context.Context, deviceID, tagID string) error
	TagsForDevice(context context.Context, deviceID string) ([]*Tag, error)
}
