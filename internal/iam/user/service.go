// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/netrack/internal/platform/sec"
	"github.com/taibuivan/netrack/pkg/pagination"
	"github.com/taibuivan/netrack/pkg/uuid"
)

// Service implements account management use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, role
// assignment, or the forced-password-change logic must be reviewed by the
// security team.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new account [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

// # Account Lifecycle

// CreateInput holds the data required to enroll a new operator account.
type CreateInput struct {
	Username         string
	Password         string
	RoleID           string
	RequireTwoFactor bool
}

/*
Create validates, hashes, and persists a brand new operator account.

Description: New accounts are always flagged MustChangePassword so that the
initial password handed out by an administrator never survives the first
login.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *User: Created entity
  - error: Conflict (if the username exists) or storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput) (*User, error) {

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user_service_hash_failed: %w", err)
	}

	// Construct the new account. Time-sortable ID to prevent PG index fragmentation.
	account := &User{
		ID:                 uuid.New(),
		Username:           input.Username,
		PasswordHash:       hashedPassword,
		RoleID:             input.RoleID,
		RequireTwoFactor:   input.RequireTwoFactor,
		MustChangePassword: true,
	}

	// Persist the account. Duplicate usernames surface as CONFLICT from the store.
	if err := service.repository.Create(context, account); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "account_created",
		slog.String("user_id", account.ID),
		slog.String("username", account.Username),
	)

	return account, nil
}

// Get retrieves a single account by ID.
func (service *Service) Get(context context.Context, id string) (*User, error) {
	return service.repository.FindByID(context, id)
}

// FindByUsername retrieves an account by its unique username.
func (service *Service) FindByUsername(context context.Context, username string) (*User, error) {
	return service.repository.FindByUsername(context, username)
}

// List returns a page of accounts plus the total count.
func (service *Service) List(context context.Context, params pagination.Params) ([]*User, int, error) {
	return service.repository.List(context, params)
}

// # Administrative Actions

/*
AssignRole moves an account to a different role.

Description: The change takes effect at the account's next login. Web sessions
carry the role resolved at login time, and API tokens are immutable until
expiry, so neither is rewritten here.

Parameters:
  - context: context.Context
  - userID: string
  - roleID: string

Returns:
  - error: NotFound, validation, or storage failures
*/
func (service *Service) AssignRole(context context.Context, userID, roleID string) error {
	if err := service.repository.AssignRole(context, userID, roleID); err != nil {
		return err
	}

	service.logger.InfoContext(context, "account_role_assigned",
		slog.String("user_id", userID),
		slog.String("role_id", roleID),
	)

	return nil
}

/*
ForcePasswordChange flags an account so that its next web login is blocked
until a new password is set.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: NotFound or storage failures
*/
func (service *Service) ForcePasswordChange(context context.Context, userID string) error {
	if err := service.repository.SetMustChangePassword(context, userID, true); err != nil {
		return err
	}

	service.logger.InfoContext(context, "account_password_change_forced",
		slog.String("user_id", userID),
	)

	return nil
}
