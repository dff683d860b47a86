package tag

import "time"

// Tag represents a free-form label applied to devices for ad-hoc grouping
// (e.g. "core", "branch-office", "decommission-q3").
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Slug is derived from Name at creation time and is stable thereafter.
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldName        = "name"
	FieldDescription = "description"
)
