// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package token implements stateless authentication for API automation clients.

One exchange of credentials yields a signed JWT whose claims embed the
account's role and its resolved permission names. From then on every API
request is authorized purely from the token — no session record, no database
read — until the fixed expiry. The trade-off is immutability: permission
edits and role changes do not reach a token already in the wild; there is no
revocation list.
*/
package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/netrack/internal/audit"
	"github.com/taibuivan/netrack/internal/iam/user"
	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/constants"
	"github.com/taibuivan/netrack/internal/platform/sec"
)

// # Contracts & Types

// TokenProvider defines the contract for generating signed access tokens.
// Satisfied by [sec.TokenService].
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, permissions, allowedIPs []string, timeToLive time.Duration) (string, error)
}

// Directory resolves a role name to its permission names from the LIVE
// store. Tokens must capture the grants as they are at issuance, so the
// permission cache is deliberately not used here.
type Directory interface {
	PermissionNamesByRole(context context.Context, roleName string) ([]string, error)
}

// Auditor records authentication events. Satisfied by [audit.Service].
type Auditor interface {
	Record(context context.Context, event audit.Event)
}

// Service implements the API token issuance use case.
type Service struct {
	userRepository user.Repository
	directory      Directory
	tokenProvider  TokenProvider
	auditor        Auditor
	logger         *slog.Logger
}

// NewService constructs a new token [Service].
func NewService(
	userRepository user.Repository,
	directory Directory,
	tokenProvider TokenProvider,
	auditor Auditor,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository: userRepository,
		directory:      directory,
		tokenProvider:  tokenProvider,
		auditor:        auditor,
		logger:         logger,
	}
}

// # Issuance

// IssueInput defines credentials for an API token request.
type IssueInput struct {
	Username string
	Password string

	// OTPCode is mandatory when the account has TOTP enabled.
	OTPCode string

	// AllowedIPs optionally pins the token to a set of client addresses.
	AllowedIPs []string

	IPAddress string
	UserAgent string
}

// IssuedToken is the transport-ready result of a successful issuance.
// Token and AccessToken carry the same JWT; both names are served so
// clients written against either convention work.
type IssuedToken struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

/*
Issue validates credentials and mints a signed access token.

Description: The account's permission names are resolved from the live
directory and frozen into the claims. Accounts mid-flow (forced password
change, pending TOTP enrollment) cannot mint tokens: those gates can only be
cleared through the web flow, and a token would bypass them for its entire
lifetime.

Parameters:
  - context: context.Context
  - input: IssueInput

Returns:
  - *IssuedToken: Signed JWT plus metadata
  - error: Unauthorized, Forbidden, or internal failures
*/
func (service *Service) Issue(context context.Context, input IssueInput) (*IssuedToken, error) {
	account, err := service.userRepository.FindByUsername(context, input.Username)

	// Generic message for unknown usernames to prevent enumeration.
	if err != nil {
		service.auditFailure(context, input, "", input.Username, "unknown username")
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		service.auditFailure(context, input, account.ID, account.Username, "wrong password")
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	// Second factor: enabled accounts must present a valid code with the
	// credentials; accounts still required to enroll cannot use the API yet.
	if account.TOTPEnabled {
		if !sec.ValidateTOTP(input.OTPCode, account.TOTPSecret) {
			service.auditFailure(context, input, account.ID, account.Username, "invalid otp code")
			return nil, apperr.Unauthorized("Invalid username or password")
		}
	} else if account.RequireTwoFactor {
		service.auditFailure(context, input, account.ID, account.Username, "two-factor enrollment pending")
		return nil, apperr.Forbidden("Two-factor enrollment must be completed before API access")
	}

	if account.MustChangePassword {
		service.auditFailure(context, input, account.ID, account.Username, "password change pending")
		return nil, apperr.Forbidden("Password must be changed before API access")
	}

	// Freeze the live permission set into the token. A directory failure
	// fails the issuance outright: an 8-hour token minted from guessed
	// permissions would be far worse than a retried login.
	permissions, err := service.directory.PermissionNamesByRole(context, account.RoleName)
	if err != nil {
		return nil, fmt.Errorf("token_service_directory_failed: %w", err)
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(
		account.ID,
		account.Username,
		account.RoleName,
		permissions,
		input.AllowedIPs,
		constants.APIAccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("token_service_generation_failed: %w", err)
	}

	service.auditor.Record(context, audit.Event{
		UserID:    account.ID,
		Username:  account.Username,
		Action:    audit.ActionTokenIssue,
		Status:    audit.StatusSuccess,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Detail:    fmt.Sprintf("permissions=%d allowed_ips=%d", len(permissions), len(input.AllowedIPs)),
	})

	return &IssuedToken{
		Token:       accessToken,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(constants.APIAccessTokenTTL.Seconds()),
	}, nil
}

// auditFailure records a failed issuance attempt.
func (service *Service) auditFailure(context context.Context, input IssueInput, userID, username, detail string) {
	service.auditor.Record(context, audit.Event{
		UserID:    userID,
		Username:  username,
		Action:    audit.ActionTokenIssue,
		Status:    audit.StatusFailure,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Detail:    detail,
	})
}
