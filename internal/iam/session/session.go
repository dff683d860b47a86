// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements cookie-based authentication for the web UI.

A session is a server-side record addressed by an opaque random ID carried in
an HttpOnly cookie. The record moves through a small state machine driven by
the login flow:

	password OK ─┬─ TOTP enabled ──────→ awaiting_otp ── code OK ─→ authenticated
	             ├─ TOTP required ─────→ awaiting_setup ─ enroll ─→ authenticated
	             └─ otherwise ─────────→ authenticated

Only an authenticated session grants access; the two intermediate states may
reach nothing but their own completion endpoints. Independently of the state,
an account flagged MustChangePassword is pinned to the password form until a
new password is set.

Permissions are NOT stored in the session. The middleware re-resolves the
session's role through the permission cache on every request, so permission
edits reach active sessions within one cache TTL.
*/
package session

import "time"

// # Session States

const (
	// StateAuthenticated grants full (permission-checked) access.
	StateAuthenticated = "authenticated"

	// StateAwaitingOTP means the password was accepted but the TOTP code has
	// not been presented yet.
	StateAwaitingOTP = "awaiting_otp"

	// StateAwaitingSetup means the account must enroll a TOTP device before
	// the login can complete.
	StateAwaitingSetup = "awaiting_setup"
)

// Session is the server-side record behind the session cookie.
//
// The ID doubles as the Redis key suffix and the cookie value; it never
// appears in the JSON body stored in Redis twice, but keeping it on the
// struct spares every caller a second parameter.
type Session struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`

	// RoleName is resolved at login. Role reassignment therefore takes
	// effect at the next login, matching API token behavior.
	RoleName string `json:"role_name"`

	State string `json:"state"`

	// PendingTOTPSecret holds the candidate secret during enrollment. It is
	// only trusted once the operator proves possession with a valid code.
	PendingTOTPSecret string `json:"pending_totp_secret,omitempty"`

	// MustChangePassword pins the session to the password form.
	MustChangePassword bool `json:"must_change_password"`

	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAuthenticated reports whether the session grants access.
func (session *Session) IsAuthenticated() bool {
	return session.State == StateAuthenticated
}

// Client identifies the browser behind a flow operation. Both attributes go
// into the audit trail with every recorded event.
type Client struct {
	IPAddress string
	UserAgent string
}

// # Navigation Steps

// NextStep tells the HTTP layer which screen follows a flow operation.
type NextStep string

const (
	StepDashboard      NextStep = "dashboard"
	StepOTPPrompt      NextStep = "otp_prompt"
	StepTwoFactorSetup NextStep = "two_factor_setup"
	StepChangePassword NextStep = "change_password"
)

// # Field Identifiers

const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldOTPCode         = "token"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldConfirmPassword = "confirmPassword"
)
