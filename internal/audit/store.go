// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"

	"github.com/taibuivan/netrack/pkg/pagination"
)

// Filter narrows audit queries. Zero values mean "no constraint".
type Filter struct {
	Username string
	Action   string
	Status   string
}

// Repository defines the persistence contract for the audit trail.
type Repository interface {
	// Insert appends one entry. The trail is append-only.
	Insert(context context.Context, entry *Entry) error

	// List returns a page of entries, newest first, plus the total count.
	List(context context.Context, params pagination.Params, filter Filter) ([]*Entry, int, error)
}
