// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rbac implements the role and permission directory.

Roles are named bundles of permissions; permissions are flat "<entity>.<action>"
names checked by exact string match. An account carries exactly one role, and
everything the account may do is derived from that role's permission set.

# Architecture

  - Entities: Role, Permission.
  - Directory: The read path (PermissionNamesByRole) consumed by the
    permission cache on every authorization decision.
  - Administration: Role/permission CRUD used by the admin API.
*/
package rbac

import "time"

// # Domain Entities

// Role is a named bundle of permissions assignable to accounts.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Permissions is populated in hydrating queries only.
	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission is a single grantable capability, named "<entity>.<action>"
// (e.g. "device.update"). Names are globally unique.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// # Field Identifiers

const (
	FieldName          = "name"
	FieldDescription   = "description"
	FieldPermissionIDs = "permission_ids"
)
