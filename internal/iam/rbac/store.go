// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import "context"

// Repository defines the persistence contract for the role/permission directory.
type Repository interface {
	// CreateRole persists a role and attaches the given permissions in one
	// transaction. A failure leaves neither the role nor any attachment behind.
	CreateRole(context context.Context, role *Role, permissionIDs []string) error

	// GetRoleByID retrieves a role with its permission set hydrated.
	GetRoleByID(context context.Context, id string) (*Role, error)

	// ListRoles returns every role ordered by name, permissions hydrated.
	ListRoles(context context.Context) ([]*Role, error)

	// ReplaceRolePermissions swaps a role's permission set atomically.
	ReplaceRolePermissions(context context.Context, roleID string, permissionIDs []string) error

	// DeleteRole removes a role. Roles still referenced by accounts are
	// protected by a foreign key and surface as a validation error.
	DeleteRole(context context.Context, id string) error

	// CreatePermission persists a new grantable permission.
	CreatePermission(context context.Context, permission *Permission) error

	// ListPermissions returns every permission ordered by name.
	ListPermissions(context context.Context) ([]*Permission, error)

	// PermissionNamesByRole returns the sorted permission names attached to
	// the named role. An unknown role yields an empty slice, not an error:
	// the caller cannot distinguish "no such role" from "role with no grants",
	// and both must deny everything.
	PermissionNamesByRole(context context.Context, roleName string) ([]string, error)
}
