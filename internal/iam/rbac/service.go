// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"log/slog"

	"github.com/taibuivan/netrack/pkg/uuid"
)

// CacheInvalidator is implemented by the permission cache. The directory
// notifies it whenever a role's effective permission set may have changed,
// so web sessions pick up the new grants on their next cache miss.
type CacheInvalidator interface {
	Invalidate(roleName string)
	InvalidateAll()
}

// noopInvalidator is used when no cache is wired (tests, tooling).
type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) {}
func (noopInvalidator) InvalidateAll()    {}

// Service implements role and permission management use cases.
type Service struct {
	repository  Repository
	invalidator CacheInvalidator
	logger      *slog.Logger
}

// NewService constructs a new directory [Service].
// A nil invalidator is replaced by a no-op.
func NewService(repository Repository, invalidator CacheInvalidator, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	return &Service{
		repository:  repository,
		invalidator: invalidator,
		logger:      logger,
	}
}

// # Role Management

// CreateRoleInput holds the data required to define a new role.
type CreateRoleInput struct {
	Name          string
	Description   string
	PermissionIDs []string
}

/*
CreateRole defines a new role with an initial permission set.

Parameters:
  - context: context.Context
  - input: CreateRoleInput

Returns:
  - *Role: Created entity with permissions hydrated
  - error: Conflict (duplicate name), validation, or storage failures
*/
func (service *Service) CreateRole(context context.Context, input CreateRoleInput) (*Role, error) {
	role := &Role{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
	}

	if err := service.repository.CreateRole(context, role, input.PermissionIDs); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "role_created",
		slog.String("role_id", role.ID),
		slog.String("role_name", role.Name),
		slog.Int("permission_count", len(input.PermissionIDs)),
	)

	// A brand new role has no cached entry yet, but invalidating is cheap and
	// covers re-creation of a recently deleted role name.
	service.invalidator.Invalidate(role.Name)

	return service.repository.GetRoleByID(context, role.ID)
}

// GetRole retrieves a role with its permission set hydrated.
func (service *Service) GetRole(context context.Context, id string) (*Role, error) {
	return service.repository.GetRoleByID(context, id)
}

// ListRoles returns every role with permissions hydrated.
func (service *Service) ListRoles(context context.Context) ([]*Role, error) {
	return service.repository.ListRoles(context)
}

/*
ReplaceRolePermissions swaps a role's permission set and drops the cached
resolution so web sessions observe the change within one cache miss.

Parameters:
  - context: context.Context
  - roleID: string
  - permissionIDs: []string

Returns:
  - error: NotFound, validation, or storage failures
*/
func (service *Service) ReplaceRolePermissions(context context.Context, roleID string, permissionIDs []string) error {
	// Resolve the role name BEFORE the swap so the invalidation targets the
	// right cache key even if the read after the write were to fail.
	role, err := service.repository.GetRoleByID(context, roleID)
	if err != nil {
		return err
	}

	if err := service.repository.ReplaceRolePermissions(context, roleID, permissionIDs); err != nil {
		return err
	}

	service.invalidator.Invalidate(role.Name)

	service.logger.InfoContext(context, "role_permissions_replaced",
		slog.String("role_id", roleID),
		slog.String("role_name", role.Name),
		slog.Int("permission_count", len(permissionIDs)),
	)

	return nil
}

/*
DeleteRole removes a role that no account references.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NotFound, VALIDATION_ERROR (role in use), or storage failures
*/
func (service *Service) DeleteRole(context context.Context, id string) error {
	role, err := service.repository.GetRoleByID(context, id)
	if err != nil {
		return err
	}

	if err := service.repository.DeleteRole(context, id); err != nil {
		return err
	}

	service.invalidator.Invalidate(role.Name)

	service.logger.InfoContext(context, "role_deleted",
		slog.String("role_id", id),
		slog.String("role_name", role.Name),
	)

	return nil
}

// # Permission Catalogue

// CreatePermissionInput holds the data for a new grantable permission.
type CreatePermissionInput struct {
	Name        string
	Description string
}

/*
CreatePermission adds a new entry to the permission catalogue.

Description: Creating a permission grants nothing by itself; the cache is not
touched until the permission is attached to a role.

Parameters:
  - context: context.Context
  - input: CreatePermissionInput

Returns:
  - *Permission: Created entity
  - error: Conflict (duplicate name) or storage failures
*/
func (service *Service) CreatePermission(context context.Context, input CreatePermissionInput) (*Permission, error) {
	permission := &Permission{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
	}

	if err := service.repository.CreatePermission(context, permission); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "permission_created",
		slog.String("permission_id", permission.ID),
		slog.String("permission_name", permission.Name),
	)

	return permission, nil
}

// ListPermissions returns the full permission catalogue.
func (service *Service) ListPermissions(context context.Context) ([]*Permission, error) {
	return service.repository.ListPermissions(context)
}
