// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit records security-relevant authentication events.

Every login attempt, logout, second-factor check, password change, and API
token issuance leaves a row in the audit trail, successes and failures alike.
The trail is append-only: entries are never updated or deleted through the
application.

# Architecture

  - Entry: the immutable event record.
  - Service: the write path. Recording is deliberately infallible from the
    caller's perspective — an audit outage must never block a login.
  - Handler: the read path for administrators.
*/
package audit

import "time"

// # Event Record

// Entry is one immutable row of the authentication audit trail.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"` // Empty when the username did not resolve.
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// # Actions

const (
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionOTPVerify        = "otp_verify"
	ActionPasswordChange   = "password_change"
	ActionTwoFactorEnroll  = "two_factor_enroll"
	ActionTwoFactorDisable = "two_factor_disable"
	ActionTokenIssue       = "token_issue"
)

// # Outcomes

const (
	StatusSuccess = "success"
	StatusFailure = "failed"
)
