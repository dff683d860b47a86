// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/netrack/internal/audit"
	"github.com/taibuivan/netrack/internal/iam/user"
	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/constants"
	"github.com/taibuivan/netrack/internal/platform/sec"
	"github.com/taibuivan/netrack/internal/platform/validate"
)

// Auditor records authentication events. Satisfied by [audit.Service].
type Auditor interface {
	Record(context context.Context, event audit.Event)
}

// Service implements the cookie-based login flow.
//
// # Review Process
//
// This service is critical for security. Any change to the state machine,
// the second-factor checks, or the forced-password-change gate must be
// reviewed by the security team.
type Service struct {
	userRepository user.Repository
	store          Store
	auditor        Auditor
	logger         *slog.Logger
}

// NewService constructs a new session [Service].
func NewService(userRepository user.Repository, store Store, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		userRepository: userRepository,
		store:          store,
		auditor:        auditor,
		logger:         logger,
	}
}

// # Login

// LoginInput defines credentials for a web authentication attempt.
type LoginInput struct {
	Username string
	Password string
	Client   Client
}

/*
Login validates credentials and opens a new session in the appropriate state.

Description: Unknown usernames and wrong passwords both answer the same
generic Unauthorized message to prevent account enumeration; the audit trail
records which one actually happened. A successful password check opens the
session in one of three states, depending on the account's second-factor
configuration.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: The persisted session (its ID goes into the cookie)
  - NextStep: The screen the browser should land on
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, NextStep, error) {
	account, err := service.userRepository.FindByUsername(context, input.Username)

	// If (err != nil) the account does not exist. Generic message to prevent enumeration.
	if err != nil {
		service.auditor.Record(context, audit.Event{
			Username:  input.Username,
			Action:    audit.ActionLogin,
			Status:    audit.StatusFailure,
			IPAddress: input.Client.IPAddress,
			UserAgent: input.Client.UserAgent,
			Detail:    "unknown username",
		})
		return nil, "", apperr.Unauthorized("Invalid username or password")
	}

	// Verify the password with bcrypt's constant-time comparison.
	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		service.auditor.Record(context, audit.Event{
			UserID:    account.ID,
			Username:  account.Username,
			Action:    audit.ActionLogin,
			Status:    audit.StatusFailure,
			IPAddress: input.Client.IPAddress,
			UserAgent: input.Client.UserAgent,
			Detail:    "wrong password",
		})
		return nil, "", apperr.Unauthorized("Invalid username or password")
	}

	sessionID, err := sec.GenerateSecureToken(constants.SessionIDLength)
	if err != nil {
		return nil, "", fmt.Errorf("session_service_id_generation_failed: %w", err)
	}

	newSession := &Session{
		ID:                 sessionID,
		UserID:             account.ID,
		Username:           account.Username,
		RoleName:           account.RoleName,
		MustChangePassword: account.MustChangePassword,
		IPAddress:          input.Client.IPAddress,
	}

	// Place the session into the state the account's 2FA configuration demands.
	var step NextStep
	switch {
	case account.TOTPEnabled:
		newSession.State = StateAwaitingOTP
		step = StepOTPPrompt
	case account.RequireTwoFactor:
		newSession.State = StateAwaitingSetup
		step = StepTwoFactorSetup
	default:
		newSession.State = StateAuthenticated
		step = service.postAuthStep(newSession)
	}

	if err := service.store.Save(context, newSession, constants.SessionTTL); err != nil {
		return nil, "", fmt.Errorf("session_service_save_failed: %w", err)
	}

	service.auditor.Record(context, audit.Event{
		UserID:    account.ID,
		Username:  account.Username,
		Action:    audit.ActionLogin,
		Status:    audit.StatusSuccess,
		IPAddress: input.Client.IPAddress,
		UserAgent: input.Client.UserAgent,
		Detail:    "state=" + newSession.State,
	})

	return newSession, step, nil
}

// # Second Factor

/*
VerifyOTP completes a login that is awaiting its TOTP code.

Parameters:
  - context: context.Context
  - current: *Session (must be in StateAwaitingOTP)
  - code: string
  - client: Client

Returns:
  - NextStep: Dashboard or the forced password form
  - error: Forbidden (wrong state), Unauthorized (bad code), or storage failures
*/
func (service *Service) VerifyOTP(context context.Context, current *Session, code string, client Client) (NextStep, error) {
	if current.State != StateAwaitingOTP {
		return "", apperr.Forbidden("No second-factor verification is pending")
	}

	account, err := service.userRepository.FindByID(context, current.UserID)
	if err != nil {
		return "", err
	}

	if !sec.ValidateTOTP(code, account.TOTPSecret) {
		service.auditor.Record(context, audit.Event{
			UserID:    account.ID,
			Username:  account.Username,
			Action:    audit.ActionOTPVerify,
			Status:    audit.StatusFailure,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
		})
		return "", apperr.Unauthorized("Invalid authentication code")
	}

	current.State = StateAuthenticated
	if err := service.store.Save(context, current, constants.SessionTTL); err != nil {
		return "", fmt.Errorf("session_service_promote_failed: %w", err)
	}

	service.auditor.Record(context, audit.Event{
		UserID:    account.ID,
		Username:  account.Username,
		Action:    audit.ActionOTPVerify,
		Status:    audit.StatusSuccess,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	return service.postAuthStep(current), nil
}

/*
BeginTwoFactorEnrollment generates a fresh TOTP secret and parks it on the
session until the operator proves possession.

Description: Allowed both when enrollment is forced (StateAwaitingSetup) and
when an authenticated operator enrolls voluntarily. The secret is NOT written
to the account yet; it lives only in the session as PendingTOTPSecret.

Parameters:
  - context: context.Context
  - current: *Session

Returns:
  - *sec.TOTPEnrollment: Secret, otpauth URL, and QR code for the authenticator app
  - error: Forbidden (wrong state) or generation failures
*/
func (service *Service) BeginTwoFactorEnrollment(context context.Context, current *Session) (*sec.TOTPEnrollment, error) {
	if current.State != StateAwaitingSetup && current.State != StateAuthenticated {
		return nil, apperr.Forbidden("Two-factor enrollment is not available in this state")
	}

	enrollment, err := sec.GenerateTOTPEnrollment(constants.AuthIssuer, current.Username)
	if err != nil {
		return nil, fmt.Errorf("session_service_enrollment_failed: %w", err)
	}

	current.PendingTOTPSecret = enrollment.Secret
	if err := service.store.Save(context, current, constants.SessionTTL); err != nil {
		return nil, fmt.Errorf("session_service_save_failed: %w", err)
	}

	return enrollment, nil
}

/*
ConfirmTwoFactorEnrollment verifies the first code against the pending secret
and activates TOTP on the account.

Parameters:
  - context: context.Context
  - current: *Session (must carry a PendingTOTPSecret)
  - code: string
  - client: Client

Returns:
  - NextStep: Dashboard or the forced password form
  - error: Forbidden, Unauthorized (bad code), or storage failures
*/
func (service *Service) ConfirmTwoFactorEnrollment(context context.Context, current *Session, code string, client Client) (NextStep, error) {
	if current.PendingTOTPSecret == "" {
		return "", apperr.Forbidden("No two-factor enrollment is in progress")
	}

	if !sec.ValidateTOTP(code, current.PendingTOTPSecret) {
		service.auditor.Record(context, audit.Event{
			UserID:    current.UserID,
			Username:  current.Username,
			Action:    audit.ActionTwoFactorEnroll,
			Status:    audit.StatusFailure,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
		})
		return "", apperr.Unauthorized("Invalid authentication code")
	}

	// Possession proven: persist the secret on the account.
	if err := service.userRepository.SetTwoFactor(context, current.UserID, current.PendingTOTPSecret, true); err != nil {
		return "", err
	}

	current.PendingTOTPSecret = ""
	current.State = StateAuthenticated
	if err := service.store.Save(context, current, constants.SessionTTL); err != nil {
		return "", fmt.Errorf("session_service_promote_failed: %w", err)
	}

	service.auditor.Record(context, audit.Event{
		UserID:    current.UserID,
		Username:  current.Username,
		Action:    audit.ActionTwoFactorEnroll,
		Status:    audit.StatusSuccess,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	return service.postAuthStep(current), nil
}

/*
DisableTwoFactor removes TOTP from an authenticated operator's account.

Description: Requires BOTH the current password and a valid TOTP code, so a
hijacked browser session alone cannot strip the second factor.

Parameters:
  - context: context.Context
  - current: *Session (must be authenticated)
  - password: string
  - code: string
  - client: Client

Returns:
  - error: Forbidden, Unauthorized, or storage failures
*/
func (service *Service) DisableTwoFactor(context context.Context, current *Session, password, code string, client Client) error {
	if !current.IsAuthenticated() {
		return apperr.Forbidden("Authentication required")
	}

	account, err := service.userRepository.FindByID(context, current.UserID)
	if err != nil {
		return err
	}

	if !account.TOTPEnabled {
		return apperr.Unprocessable("Two-factor authentication is not enabled")
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) || !sec.ValidateTOTP(code, account.TOTPSecret) {
		service.auditor.Record(context, audit.Event{
			UserID:    account.ID,
			Username:  account.Username,
			Action:    audit.ActionTwoFactorDisable,
			Status:    audit.StatusFailure,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
		})
		return apperr.Unauthorized("Invalid credentials")
	}

	if err := service.userRepository.SetTwoFactor(context, account.ID, "", false); err != nil {
		return err
	}

	service.auditor.Record(context, audit.Event{
		UserID:    account.ID,
		Username:  account.Username,
		Action:    audit.ActionTwoFactorDisable,
		Status:    audit.StatusSuccess,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	return nil
}

// # Password Rotation

/*
ChangePassword rotates the operator's password.

Description: The session that performed the change is destroyed: anything
that held its cookie before the rotation (shared machine, leaked cookie —
the situations that prompt a forced change) must not stay signed in on the
new credentials. The caller redirects to the login form.

Parameters:
  - context: context.Context
  - current: *Session (must be authenticated)
  - currentPassword: string
  - newPassword: string
  - client: Client

Returns:
  - error: Forbidden, Unauthorized, validation, or storage failures
*/
func (service *Service) ChangePassword(context context.Context, current *Session, currentPassword, newPassword string, client Client) error {
	if !current.IsAuthenticated() {
		return apperr.Forbidden("Authentication required")
	}
	if newPassword == currentPassword {
		return validate.RequiredError(FieldNewPassword, "New password must differ from the current one")
	}

	account, err := service.userRepository.FindByID(context, current.UserID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, account.PasswordHash) {
		service.auditor.Record(context, audit.Event{
			UserID:    account.ID,
			Username:  account.Username,
			Action:    audit.ActionPasswordChange,
			Status:    audit.StatusFailure,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
			Detail:    "wrong current password",
		})
		return apperr.Unauthorized("Current password is incorrect")
	}

	if sec.CheckPasswordHash(newPassword, account.PasswordHash) {
		return validate.RequiredError(FieldNewPassword, "New password must differ from the current one")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("session_service_hash_failed: %w", err)
	}

	// UpdatePassword also clears MustChangePassword on the account row.
	if err := service.userRepository.UpdatePassword(context, account.ID, hashedPassword); err != nil {
		return err
	}

	if err := service.store.Delete(context, current.ID); err != nil {
		return fmt.Errorf("session_service_invalidate_failed: %w", err)
	}

	service.auditor.Record(context, audit.Event{
		UserID:    account.ID,
		Username:  account.Username,
		Action:    audit.ActionPasswordChange,
		Status:    audit.StatusSuccess,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	return nil
}

// # Session Lifecycle

// Find loads a session by its cookie value.
func (service *Service) Find(context context.Context, id string) (*Session, error) {
	return service.store.Find(context, id)
}

/*
Logout destroys the session. Destroying an already-gone session succeeds
(idempotent), but only real logouts are audited.

Parameters:
  - context: context.Context
  - current: *Session
  - client: Client

Returns:
  - error: Storage failures
*/
func (service *Service) Logout(context context.Context, current *Session, client Client) error {
	if err := service.store.Delete(context, current.ID); err != nil {
		return fmt.Errorf("session_service_logout_failed: %w", err)
	}

	service.auditor.Record(context, audit.Event{
		UserID:    current.UserID,
		Username:  current.Username,
		Action:    audit.ActionLogout,
		Status:    audit.StatusSuccess,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	return nil
}

// postAuthStep decides where an authenticated session lands next.
func (service *Service) postAuthStep(current *Session) NextStep {
	if current.MustChangePassword {
		return StepChangePassword
	}
	return StepDashboard
}
