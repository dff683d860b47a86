// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subnet

import (
	"context"

	"github.com/taibuivan/netrack/pkg/pagination"
)

// Repository defines the persistence contract for the subnet inventory.
type Repository interface {
	Create(context context.Context, subnet *Subnet) error
	FindByID(context context.Context, id string) (*Subnet, error)
	List(context context.Context, params pagination.Params) ([]*Subnet, int, error)
	Update(context context.Context, subnet *Subnet) error
	Delete(context context.Context, id string) error
}
