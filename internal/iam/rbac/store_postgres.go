// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/netrack/internal/platform/dberr"
)

// PostgresRepository implements the [Repository] interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Role Writes

/*
CreateRole persists a role and its permission attachments in one transaction.

Parameters:
  - context: context.Context
  - role: *Role (Entity to persist)
  - permissionIDs: []string (Permissions to attach)

Returns:
  - error: CONFLICT on duplicate name, VALIDATION_ERROR on unknown permission, or connectivity errors
*/
func (repository *PostgresRepository) CreateRole(context context.Context, role *Role, permissionIDs []string) error {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_begin_failed: %w", err)
	}
	defer func() { _ = tx.Rollback(context) }()

	now := time.Now()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now

	const roleQuery = `
		INSERT INTO iam.role (id, name, description, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.Exec(context, roleQuery, role.ID, role.Name, role.Description, role.CreatedAt, role.UpdatedAt); err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_role_repo_create_failed: %w", err), "Role")
	}

	if err := attachPermissions(context, tx, role.ID, permissionIDs); err != nil {
		return err
	}

	if err := tx.Commit(context); err != nil {
		return fmt.Errorf("postgres_role_repo_commit_failed: %w", err)
	}

	return nil
}

/*
ReplaceRolePermissions swaps a role's permission set atomically.

Description: Deletes every existing attachment and re-inserts the new set in
one transaction, so concurrent readers never observe a half-updated role.

Parameters:
  - context: context.Context
  - roleID: string
  - permissionIDs: []string

Returns:
  - error: NotFound, VALIDATION_ERROR on unknown permission, or connectivity errors
*/
func (repository *PostgresRepository) ReplaceRolePermissions(context context.Context, roleID string, permissionIDs []string) error {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_begin_failed: %w", err)
	}
	defer func() { _ = tx.Rollback(context) }()

	// Touch the role row first: this both verifies existence and serializes
	// concurrent permission swaps on the same role.
	const touchQuery = `UPDATE iam.role SET updatedat = NOW() WHERE id = $1`
	tag, err := tx.Exec(context, touchQuery, roleID)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_role_repo_touch_failed: %w", err), "Role")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Role")
	}

	const clearQuery = `DELETE FROM iam.role_permission WHERE roleid = $1`
	if _, err := tx.Exec(context, clearQuery, roleID); err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_role_repo_clear_failed: %w", err), "Role")
	}

	if err := attachPermissions(context, tx, roleID, permissionIDs); err != nil {
		return err
	}

	if err := tx.Commit(context); err != nil {
		return fmt.Errorf("postgres_role_repo_commit_failed: %w", err)
	}

	return nil
}

/*
DeleteRole removes a role and its permission attachments.

Description: Accounts still assigned to the role are protected by an FK on
iam.account, which surfaces as a validation error through the dberr bridge.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NotFound, VALIDATION_ERROR (role in use), or connectivity errors
*/
func (repository *PostgresRepository) DeleteRole(context context.Context, id string) error {
	const query = `DELETE FROM iam.role WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_role_repo_delete_failed: %w", err), "Role")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Role")
	}

	return nil
}

// attachPermissions inserts role/permission attachments inside a transaction.
// ON CONFLICT DO NOTHING makes duplicate IDs in the input harmless.
func attachPermissions(context context.Context, tx pgx.Tx, roleID string, permissionIDs []string) error {
	const query = `
		INSERT INTO iam.role_permission (roleid, permissionid)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, permissionID := range permissionIDs {
		if _, err := tx.Exec(context, query, roleID, permissionID); err != nil {
			return dberr.Wrap(fmt.Errorf("postgres_role_repo_attach_failed: %w", err), "Permission")
		}
	}

	return nil
}

// # Role Reads

/*
GetRoleByID retrieves a role with its permission set hydrated.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Role: Hydrated role entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) GetRoleByID(context context.Context, id string) (*Role, error) {
	const query = `
		SELECT id, name, description, createdat, updatedat
		FROM iam.role
		WHERE id = $1`

	role := &Role{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}

	permissions, err := repository.permissionsForRole(context, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = permissions

	return role, nil
}

/*
ListRoles returns every role ordered by name, permissions hydrated.

Parameters:
  - context: context.Context

Returns:
  - []*Role: All roles with permission sets
  - error: Database errors
*/
func (repository *PostgresRepository) ListRoles(context context.Context) ([]*Role, error) {
	const roleQuery = `
		SELECT id, name, description, createdat, updatedat
		FROM iam.role
		ORDER BY name ASC`

	rows, err := repository.pool.Query(context, roleQuery)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_list_failed: %w", err), "Role")
	}
	defer rows.Close()

	roles := make([]*Role, 0)
	roleMap := make(map[string]*Role)
	for rows.Next() {
		role := &Role{Permissions: make([]Permission, 0)}
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_scan_failed: %w", err), "Role")
		}
		roles = append(roles, role)
		roleMap[role.ID] = role
	}
	rows.Close()

	const attachQuery = `
		SELECT rp.roleid, p.id, p.name, p.description, p.createdat
		FROM iam.role_permission rp
		JOIN iam.permission p ON rp.permissionid = p.id
		ORDER BY p.name ASC`

	attachRows, err := repository.pool.Query(context, attachQuery)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_list_attach_failed: %w", err), "Permission")
	}
	defer attachRows.Close()

	for attachRows.Next() {
		var roleID string
		permission := Permission{}
		if err := attachRows.Scan(&roleID, &permission.ID, &permission.Name, &permission.Description, &permission.CreatedAt); err != nil {
			return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_attach_scan_failed: %w", err), "Permission")
		}

		if role, ok := roleMap[roleID]; ok {
			role.Permissions = append(role.Permissions, permission)
		}
	}

	return roles, nil
}

/*
PermissionNamesByRole returns the sorted permission names for a role name.

Description: An unknown role yields an empty slice and no error, because the
authorization path treats "no such role" and "role with no grants" the same
way: deny everything.

Parameters:
  - context: context.Context
  - roleName: string

Returns:
  - []string: Permission names ordered by name ASC
  - error: Database errors
*/
func (repository *PostgresRepository) PermissionNamesByRole(context context.Context, roleName string) ([]string, error) {
	const query = `
		SELECT p.name
		FROM iam.role r
		JOIN iam.role_permission rp ON rp.roleid = r.id
		JOIN iam.permission p ON p.id = rp.permissionid
		WHERE r.name = $1
		ORDER BY p.name ASC`

	rows, err := repository.pool.Query(context, query, roleName)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_permission_names_failed: %w", err), "Role")
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_permission_names_scan_failed: %w", err), "Role")
		}
		names = append(names, name)
	}

	return names, nil
}

// permissionsForRole hydrates the permission set of a single role.
func (repository *PostgresRepository) permissionsForRole(context context.Context, roleID string) ([]Permission, error) {
	const query = `
		SELECT p.id, p.name, p.description, p.createdat
		FROM iam.role_permission rp
		JOIN iam.permission p ON rp.permissionid = p.id
		WHERE rp.roleid = $1
		ORDER BY p.name ASC`

	rows, err := repository.pool.Query(context, query, roleID)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_hydrate_failed: %w", err), "Permission")
	}
	defer rows.Close()

	permissions := make([]Permission, 0)
	for rows.Next() {
		permission := Permission{}
		if err := rows.Scan(&permission.ID, &permission.Name, &permission.Description, &permission.CreatedAt); err != nil {
			return nil, dberr.Wrap(fmt.Errorf("postgres_role_repo_hydrate_scan_failed: %w", err), "Permission")
		}
		permissions = append(permissions, permission)
	}

	return permissions, nil
}

// # Permission Catalogue

/*
CreatePermission persists a new grantable permission.

Parameters:
  - context: context.Context
  - permission: *Permission

Returns:
  - error: CONFLICT on duplicate name or connectivity errors
*/
func (repository *PostgresRepository) CreatePermission(context context.Context, permission *Permission) error {
	const query = `
		INSERT INTO iam.permission (id, name, description, createdat)
		VALUES ($1, $2, $3, $4)`

	if permission.CreatedAt.IsZero() {
		permission.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		permission.ID, permission.Name, permission.Description, permission.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_permission_repo_create_failed: %w", err), "Permission")
	}

	return nil
}

/*
ListPermissions returns every permission ordered by name.

Parameters:
  - context: context.Context

Returns:
  - []*Permission: Full catalogue
  - error: Database errors
*/
func (repository *PostgresRepository) ListPermissions(context context.Context) ([]*Permission, error) {
	const query = `
		SELECT id, name, description, createdat
		FROM iam.permission
		ORDER BY name ASC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_permission_repo_list_failed: %w", err), "Permission")
	}
	defer rows.Close()

	permissions := make([]*Permission, 0)
	for rows.Next() {
		permission := &Permission{}
		if err := rows.Scan(&permission.ID, &permission.Name, &permission.Description, &permission.CreatedAt); err != nil {
			return nil, dberr.Wrap(fmt.Errorf("postgres_permission_repo_scan_failed: %w", err), "Permission")
		}
		permissions = append(permissions, permission)
	}

	return permissions, nil
}
