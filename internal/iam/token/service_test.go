// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package token_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/netrack/internal/audit"
	"github.com/taibuivan/netrack/internal/iam/token"
	"github.com/taibuivan/netrack/internal/iam/user"
	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/sec"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	account *user.User
}

func (repo *fakeUserRepo) Create(context.Context, *user.User) error { return nil }

func (repo *fakeUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	if repo.account != nil && repo.account.ID == id {
		return repo.account, nil
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakeUserRepo) FindByUsername(_ context.Context, username string) (*user.User, error) {
	if repo.account != nil && repo.account.Username == username {
		return repo.account, nil
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakeUserRepo) List(context.Context, pagination.Params) ([]*user.User, int, error) {
	return nil, 0, nil
}
func (repo *fakeUserRepo) UpdatePassword(context.Context, string, string) error       { return nil }
func (repo *fakeUserRepo) SetMustChangePassword(context.Context, string, bool) error  { return nil }
func (repo *fakeUserRepo) SetTwoFactor(context.Context, string, string, bool) error   { return nil }
func (repo *fakeUserRepo) AssignRole(context.Context, string, string) error           { return nil }

type fakeDirectory struct {
	names []string
	err   error
}

func (directory *fakeDirectory) PermissionNamesByRole(context.Context, string) ([]string, error) {
	return directory.names, directory.err
}

type fakeAuditor struct {
	events []audit.Event
}

func (auditor *fakeAuditor) Record(_ context.Context, event audit.Event) {
	auditor.events = append(auditor.events, event)
}

func (auditor *fakeAuditor) last() audit.Event {
	if len(auditor.events) == 0 {
		return audit.Event{}
	}
	return auditor.events[len(auditor.events)-1]
}

// # Test Scaffolding

const testPassword = "Automation1X"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestService(t *testing.T, account *user.User, directory *fakeDirectory) (*token.Service, *fakeAuditor, *sec.TokenService) {
	t.Helper()

	provider, err := sec.NewTokenService("test-signing-secret", "netrack")
	require.NoError(t, err)

	auditor := &fakeAuditor{}
	service := token.NewService(&fakeUserRepo{account: account}, directory, provider, auditor, testLogger())
	return service, auditor, provider
}

func apiAccount(t *testing.T, mutate func(*user.User)) *user.User {
	t.Helper()
	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)

	account := &user.User{
		ID:           "0192d7a0-0000-7000-8000-000000000042",
		Username:     "svc.backup",
		PasswordHash: hash,
		RoleName:     "operator",
	}
	if mutate != nil {
		mutate(account)
	}
	return account
}

// # Tests

/*
TestService_Issue_EmbedsLivePermissions verifies that a successful issuance
produces a verifiable JWT carrying the directory's current permission set.
*/
func TestService_Issue_EmbedsLivePermissions(t *testing.T) {
	directory := &fakeDirectory{names: []string{"device.read", "device.update"}}
	service, auditor, provider := newTestService(t, apiAccount(t, nil), directory)

	issued, err := service.Issue(context.Background(), token.IssueInput{
		Username: "svc.backup", Password: testPassword,
		IPAddress: "10.0.0.5", UserAgent: "backup-agent/2.1",
	})
	require.NoError(t, err)

	// 1. Transport metadata; the JWT is served under both field names
	assert.Equal(t, "Bearer", issued.TokenType)
	assert.Equal(t, int((8 * time.Hour).Seconds()), issued.ExpiresIn)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, issued.Token, issued.AccessToken)

	// 2. The token verifies and carries the frozen grants
	claims, err := provider.VerifyToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "svc.backup", claims.Username)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, []string{"device.read", "device.update"}, claims.Permissions)
	assert.True(t, claims.HasPermission("device.update"))
	assert.False(t, claims.HasPermission("device.delete"))

	// 3. Issuance audited with the originating client
	assert.Equal(t, audit.ActionTokenIssue, auditor.last().Action)
	assert.Equal(t, audit.StatusSuccess, auditor.last().Status)
	assert.Equal(t, "10.0.0.5", auditor.last().IPAddress)
	assert.Equal(t, "backup-agent/2.1", auditor.last().UserAgent)
}

/*
TestService_Issue_BadCredentialsAreGeneric verifies that wrong passwords and
unknown usernames answer the same message while the audit trail differs.
*/
func TestService_Issue_BadCredentialsAreGeneric(t *testing.T) {
	service, auditor, _ := newTestService(t, apiAccount(t, nil), &fakeDirectory{})

	_, err := service.Issue(context.Background(), token.IssueInput{
		Username: "svc.backup", Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())
	assert.Equal(t, "wrong password", auditor.last().Detail)
	assert.Equal(t, "failed", auditor.last().Status)

	_, err = service.Issue(context.Background(), token.IssueInput{
		Username: "ghost", Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())
	assert.Equal(t, "unknown username", auditor.last().Detail)
}

/*
TestService_Issue_SecondFactorGates verifies the TOTP requirements on the
API path: enabled accounts need a valid code, pending enrollments are
refused entirely.
*/
func TestService_Issue_SecondFactorGates(t *testing.T) {
	// 1. TOTP enabled: the code must accompany the credentials
	enrolled := apiAccount(t, func(account *user.User) {
		account.TOTPEnabled = true
		account.TOTPSecret = "JBSWY3DPEHPK3PXP"
	})
	service, _, _ := newTestService(t, enrolled, &fakeDirectory{names: []string{"device.read"}})

	_, err := service.Issue(context.Background(), token.IssueInput{
		Username: "svc.backup", Password: testPassword, OTPCode: "000000",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())

	code, err := totp.GenerateCode(enrolled.TOTPSecret, time.Now())
	require.NoError(t, err)

	issued, err := service.Issue(context.Background(), token.IssueInput{
		Username: "svc.backup", Password: testPassword, OTPCode: code,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.AccessToken)

	// 2. Enrollment pending: refused until completed through the web flow
	pending := apiAccount(t, func(account *user.User) { account.RequireTwoFactor = true })
	service, _, _ = newTestService(t, pending, &fakeDirectory{})

	_, err = service.Issue(context.Background(), token.IssueInput{
		Username: "svc.backup", Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, 403, apperr.As(err).HTTPStatus)
}

/*
TestService_Issue_PendingPasswordChangeIsRefused verifies that a forced
password change blocks token issuance.
*/
func TestService_Issue_PendingPasswordChangeIsRefused(t *testing.T) {
	flagged := apiAccount(t, func(account *user.User) { account.MustChangePassword = true })
	service, auditor, _ := newTestService(t, flagged, &fakeDirectory{})

	_, err := service.Issue(context.Background(), token.IssueInput{
		Username: "svc.backup", Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, 403, apperr.As(err).HTTPStatus)
	assert.Equal(t, "password change pending", auditor.last().Detail)
}

/*
TestService_Issue_DirectoryOutageFailsIssuance verifies that a directory
error aborts issuance instead of minting a token with guessed permissions.
*/
func TestService_Issue_DirectoryOutageFailsIssuance(t *testing.T) {
	directory := &fakeDirectory{err: errors.New("connection refused")}
	service, _, _ := newTestService(t, apiAccount(t, nil), directory)

	_, err := service.Issue(context.Background(), token.IssueInput{
		Username: "svc.backup", Password: testPassword,
	})
	require.Error(t, err)
	assert.False(t, apperr.IsAppError(err))
}
