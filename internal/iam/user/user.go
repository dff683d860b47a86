// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package user implements the credential store of the identity layer.

It defines the User entity (operator accounts that sign in to the inventory)
and the lifecycle operations around them: creation, password rotation, role
assignment, and the administrative flags that drive the login flow.

# Architecture

This layer is the "Truth" of the identity system. Entities defined here have
no transport dependencies and encapsulate all business rules related to
account state.
*/
package user

import "time"

// # Domain Entities

// User represents an operator account of the Netrack platform.
//
// The second-factor fields form a small state machine:
//
//   - RequireTwoFactor && !TOTPEnabled: the operator must enroll a TOTP
//     device on next web login before anything else.
//   - TOTPEnabled: every login (web and API) must present a valid TOTP code.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Explicitly omitted from JSON for security.

	// RoleID references iam.role. RoleName is hydrated on read via a join
	// so that callers never need a second lookup to label the account.
	RoleID   string `json:"role_id"`
	RoleName string `json:"role"`

	// TOTPSecret holds the shared TOTP secret once enrollment is confirmed.
	TOTPSecret  string `json:"-"` // Never serialized.
	TOTPEnabled bool   `json:"totp_enabled"`

	// RequireTwoFactor forces TOTP enrollment at next interactive login.
	RequireTwoFactor bool `json:"require_two_factor"`

	// MustChangePassword blocks all navigation until a new password is set.
	MustChangePassword bool `json:"must_change_password"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the user domain.
const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldRoleID   = "role_id"
)
