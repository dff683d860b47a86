// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package user (Postgres) implements the storage layer for operator accounts.

# Architecture

Repositories in this file are strictly separated from domain logic. They
implement the domain-defined [Repository] interface using the [pgxpool.Pool]
connection manager.

# Error Mapping

Storage-specific errors (like pgx.ErrNoRows and unique violations) are mapped
to domain-friendly [apperr.AppError] types via the dberr bridge so that no
storage detail leaks to clients.
*/
package user

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/netrack/internal/platform/dberr"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// accountColumns is the shared SELECT list, joined with the role name.
const accountColumns = `
	a.id, a.username, a.passwordhash, a.roleid, r.name,
	a.totpsecret, a.totpenabled, a.requiretwofactor, a.mustchangepassword,
	a.createdat, a.updatedat`

// PostgresRepository implements the [Repository] interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new account record into the iam.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: CONFLICT on duplicate username, or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO iam.account (
			id, username, passwordhash, roleid, totpsecret, totpenabled,
			requiretwofactor, mustchangepassword, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.RoleID,
		user.TOTPSecret,
		user.TOTPEnabled,
		user.RequireTwoFactor,
		user.MustChangePassword,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_create_failed: %w", err), "Account")
	}

	return nil
}

/*
FindByID retrieves an account by its UUID, with the role name hydrated.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM iam.account a
		JOIN iam.role r ON a.roleid = r.id
		WHERE a.id = $1`, accountColumns)

	return repository.scanOne(context, query, id)
}

/*
FindByUsername retrieves an account by its unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM iam.account a
		JOIN iam.role r ON a.roleid = r.id
		WHERE a.username = $1`, accountColumns)

	return repository.scanOne(context, query, username)
}

/*
List returns a page of accounts ordered by username plus the total count.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*User: Page of accounts
  - int: Total number of accounts
  - error: Database errors
*/
func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*User, int, error) {
	const countQuery = `SELECT COUNT(*) FROM iam.account`

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_account_repo_count_failed: %w", err), "Account")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM iam.account a
		JOIN iam.role r ON a.roleid = r.id
		ORDER BY a.username ASC
		LIMIT $1 OFFSET $2`, accountColumns)

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_account_repo_list_failed: %w", err), "Account")
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		user := &User{}
		if err := scanUser(rows.Scan, user); err != nil {
			return nil, 0, dberr.Wrap(fmt.Errorf("postgres_account_repo_scan_failed: %w", err), "Account")
		}
		users = append(users, user)
	}

	return users, total, nil
}

/*
UpdatePassword replaces the stored hash and clears the forced-change flag.

Description: The two writes happen in a single statement so that an operator
can never end up with a new password while still being marked for a forced
change.

Parameters:
  - context: context.Context
  - id: string
  - passwordHash: string

Returns:
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) UpdatePassword(context context.Context, id, passwordHash string) error {
	const query = `
		UPDATE iam.account
		SET passwordhash = $2, mustchangepassword = FALSE, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, passwordHash)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_update_password_failed: %w", err), "Account")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Account")
	}

	return nil
}

/*
SetMustChangePassword flips the forced-password-change flag.

Parameters:
  - context: context.Context
  - id: string
  - value: bool

Returns:
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) SetMustChangePassword(context context.Context, id string, value bool) error {
	const query = `
		UPDATE iam.account
		SET mustchangepassword = $2, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, value)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_set_force_change_failed: %w", err), "Account")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Account")
	}

	return nil
}

/*
SetTwoFactor stores the TOTP secret and enabled flag atomically.

Parameters:
  - context: context.Context
  - id: string
  - secret: string (empty when disabling)
  - enabled: bool

Returns:
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) SetTwoFactor(context context.Context, id, secret string, enabled bool) error {
	const query = `
		UPDATE iam.account
		SET totpsecret = $2, totpenabled = $3, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, secret, enabled)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_set_two_factor_failed: %w", err), "Account")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Account")
	}

	return nil
}

/*
AssignRole moves the account to a different role.

Parameters:
  - context: context.Context
  - id: string
  - roleID: string

Returns:
  - error: VALIDATION_ERROR if the role does not exist, apperr.NotFound, or database errors
*/
func (repository *PostgresRepository) AssignRole(context context.Context, id, roleID string) error {
	const query = `
		UPDATE iam.account
		SET roleid = $2, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, roleID)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_assign_role_failed: %w", err), "Role")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Account")
	}

	return nil
}

// # Scan Helpers

// scanOne runs a single-row account query and hydrates the entity.
func (repository *PostgresRepository) scanOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := scanUser(repository.pool.QueryRow(context, query, arg).Scan, user)
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}
	return user, nil
}

// scanUser maps one account row into the entity using the given scan function.
func scanUser(scan func(dest ...any) error, user *User) error {
	return scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.RoleID,
		&user.RoleName,
		&user.TOTPSecret,
		&user.TOTPEnabled,
		&user.RequireTwoFactor,
		&user.MustChangePassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
