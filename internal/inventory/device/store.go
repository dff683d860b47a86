// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package device

import (
	"context"

	"github.com/taibuivan/netrack/pkg/pagination"
)

// Filter narrows device listings. Zero values mean "no constraint".
type Filter struct {
	Status   string
	SubnetID string
}

// Repository defines the persistence contract for the device inventory.
type Repository interface {
	Create(context context.Context, device *Device) error
	FindByID(context context.Context, id string) (*Device, error)
	List(context context.Context, params pagination.Params, filter Filter) ([]*Device, int, error)
	Update(context context.Context, device *Device) error
	Delete(context context.Context, id string) error
}
