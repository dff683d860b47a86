// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"context"

	"github.com/taibuivan/netrack/pkg/pagination"
)

// Repository defines the persistence contract for operator accounts.
//
// Every read returns the account with its role name hydrated.
type Repository interface {
	// Create persists a brand new account.
	Create(context context.Context, user *User) error

	// FindByID retrieves an account by its UUID.
	FindByID(context context.Context, id string) (*User, error)

	// FindByUsername retrieves an account by its unique username.
	FindByUsername(context context.Context, username string) (*User, error)

	// List returns a page of accounts ordered by username, plus the total count.
	List(context context.Context, params pagination.Params) ([]*User, int, error)

	// UpdatePassword replaces the stored hash and clears MustChangePassword.
	UpdatePassword(context context.Context, id, passwordHash string) error

	// SetMustChangePassword flips the forced-password-change flag.
	SetMustChangePassword(context context.Context, id string, value bool) error

	// SetTwoFactor stores the TOTP secret and enabled flag atomically.
	// Disabling passes an empty secret.
	SetTwoFactor(context context.Context, id, secret string, enabled bool) error

	// AssignRole moves the account to a different role.
	AssignRole(context context.Context, id, roleID string) error
}
