// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/netrack/internal/audit"
	"github.com/taibuivan/netrack/internal/iam/session"
	"github.com/taibuivan/netrack/internal/iam/user"
	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/sec"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User // keyed by ID
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, account := range users {
		repo.users[account.ID] = account
	}
	return repo
}

func (repo *fakeUserRepo) Create(_ context.Context, account *user.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.users[account.ID] = account
	return nil
}

func (repo *fakeUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if account, ok := repo.users[id]; ok {
		duplicate := *account
		return &duplicate, nil
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakeUserRepo) FindByUsername(_ context.Context, username string) (*user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, account := range repo.users {
		if account.Username == username {
			duplicate := *account
			return &duplicate, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakeUserRepo) List(_ context.Context, _ pagination.Params) ([]*user.User, int, error) {
	return nil, 0, nil
}

func (repo *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	account, ok := repo.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.PasswordHash = passwordHash
	account.MustChangePassword = false
	return nil
}

func (repo *fakeUserRepo) SetMustChangePassword(_ context.Context, id string, value bool) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	account, ok := repo.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.MustChangePassword = value
	return nil
}

func (repo *fakeUserRepo) SetTwoFactor(_ context.Context, id, secret string, enabled bool) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	account, ok := repo.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.TOTPSecret = secret
	account.TOTPEnabled = enabled
	return nil
}

func (repo *fakeUserRepo) AssignRole(_ context.Context, id, roleID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	account, ok := repo.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.RoleID = roleID
	return nil
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*session.Session)}
}

func (store *fakeStore) Save(_ context.Context, current *session.Session, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	duplicate := *current
	store.sessions[current.ID] = &duplicate
	return nil
}

func (store *fakeStore) Find(_ context.Context, id string) (*session.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if current, ok := store.sessions[id]; ok {
		duplicate := *current
		return &duplicate, nil
	}
	return nil, apperr.Unauthorized("Session is invalid or expired")
}

func (store *fakeStore) Delete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, id)
	return nil
}

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (auditor *fakeAuditor) Record(_ context.Context, event audit.Event) {
	auditor.mu.Lock()
	defer auditor.mu.Unlock()
	auditor.events = append(auditor.events, event)
}

func (auditor *fakeAuditor) last() audit.Event {
	auditor.mu.Lock()
	defer auditor.mu.Unlock()
	if len(auditor.events) == 0 {
		return audit.Event{}
	}
	return auditor.events[len(auditor.events)-1]
}

// # Test Scaffolding

const testPassword = "Correct1Horse"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestService(t *testing.T, accounts ...*user.User) (*session.Service, *fakeUserRepo, *fakeStore, *fakeAuditor) {
	t.Helper()
	repo := newFakeUserRepo(accounts...)
	store := newFakeStore()
	auditor := &fakeAuditor{}
	return session.NewService(repo, store, auditor, testLogger()), repo, store, auditor
}

func testAccount(t *testing.T, mutate func(*user.User)) *user.User {
	t.Helper()
	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)

	account := &user.User{
		ID:           "0192d7a0-0000-7000-8000-000000000001",
		Username:     "n.admin",
		PasswordHash: hash,
		RoleID:       "0192d7a0-0000-7000-8000-0000000000aa",
		RoleName:     "admin",
	}
	if mutate != nil {
		mutate(account)
	}
	return account
}

// # Login

/*
TestService_Login_WrongPasswordIsGenericAndAudited verifies that bad
credentials answer one generic message (no enumeration) while the audit
trail records the real cause.
*/
func TestService_Login_WrongPasswordIsGenericAndAudited(t *testing.T) {
	service, _, _, auditor := newTestService(t, testAccount(t, nil))

	// 1. Wrong password
	_, _, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: "wrong",
		Client: session.Client{IPAddress: "10.0.0.9", UserAgent: "curl/8.5"},
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())
	assert.Equal(t, "failed", auditor.last().Status)
	assert.Equal(t, "wrong password", auditor.last().Detail)

	// 2. The audit row captures the client, not just the outcome
	assert.Equal(t, "10.0.0.9", auditor.last().IPAddress)
	assert.Equal(t, "curl/8.5", auditor.last().UserAgent)

	// 3. Unknown username: byte-identical client-facing error
	_, _, err = service.Login(context.Background(), session.LoginInput{
		Username: "ghost", Password: testPassword,
		Client: session.Client{IPAddress: "10.0.0.9"},
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password", err.Error())
	assert.Equal(t, "unknown username", auditor.last().Detail)
}

/*
TestService_Login_PlainAccountLandsOnDashboard verifies the happy path for
an account with no second factor and no pending flags.
*/
func TestService_Login_PlainAccountLandsOnDashboard(t *testing.T) {
	service, _, store, auditor := newTestService(t, testAccount(t, nil))

	newSession, step, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
		Client: session.Client{IPAddress: "10.0.0.9", UserAgent: "Mozilla/5.0"},
	})
	require.NoError(t, err)

	// 1. Fully authenticated, headed to the dashboard
	assert.Equal(t, session.StateAuthenticated, newSession.State)
	assert.Equal(t, session.StepDashboard, step)
	assert.Equal(t, "admin", newSession.RoleName)

	// 2. Persisted and retrievable by its ID
	stored, err := store.Find(context.Background(), newSession.ID)
	require.NoError(t, err)
	assert.Equal(t, newSession.UserID, stored.UserID)

	// 3. Success audited with the originating client
	assert.Equal(t, audit.StatusSuccess, auditor.last().Status)
	assert.Equal(t, audit.ActionLogin, auditor.last().Action)
	assert.Equal(t, "Mozilla/5.0", auditor.last().UserAgent)
}

/*
TestService_Login_ForcedPasswordChangeIsRouted verifies that a flagged
account authenticates but is sent to the password form.
*/
func TestService_Login_ForcedPasswordChangeIsRouted(t *testing.T) {
	account := testAccount(t, func(account *user.User) { account.MustChangePassword = true })
	service, _, _, _ := newTestService(t, account)

	newSession, step, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
	})
	require.NoError(t, err)

	assert.Equal(t, session.StateAuthenticated, newSession.State)
	assert.Equal(t, session.StepChangePassword, step)
	assert.True(t, newSession.MustChangePassword)
}

/*
TestService_Login_SecondFactorStates verifies the state the session opens in
for TOTP-enabled and TOTP-required accounts.
*/
func TestService_Login_SecondFactorStates(t *testing.T) {
	// 1. TOTP already enrolled: code prompt before anything else
	enrolled := testAccount(t, func(account *user.User) {
		account.TOTPEnabled = true
		account.TOTPSecret = "JBSWY3DPEHPK3PXP"
	})
	service, _, _, _ := newTestService(t, enrolled)

	newSession, step, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingOTP, newSession.State)
	assert.Equal(t, session.StepOTPPrompt, step)

	// 2. TOTP required but not yet enrolled: forced enrollment
	required := testAccount(t, func(account *user.User) { account.RequireTwoFactor = true })
	service, _, _, _ = newTestService(t, required)

	newSession, step, err = service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingSetup, newSession.State)
	assert.Equal(t, session.StepTwoFactorSetup, step)
}

// # Second Factor

/*
TestService_VerifyOTP verifies code checking against the enrolled secret and
the resulting state promotion.
*/
func TestService_VerifyOTP(t *testing.T) {
	account := testAccount(t, func(account *user.User) {
		account.TOTPEnabled = true
		account.TOTPSecret = "JBSWY3DPEHPK3PXP"
	})
	service, _, store, auditor := newTestService(t, account)

	newSession, _, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
	})
	require.NoError(t, err)

	// 1. Garbage code: rejected, audited, state unchanged
	_, err = service.VerifyOTP(context.Background(), newSession, "000000", session.Client{IPAddress: "10.0.0.9"})
	require.Error(t, err)
	assert.Equal(t, audit.StatusFailure, auditor.last().Status)
	assert.Equal(t, session.StateAwaitingOTP, newSession.State)

	// 2. Valid code for the current time window: promoted to authenticated
	code, err := totp.GenerateCode(account.TOTPSecret, time.Now())
	require.NoError(t, err)

	step, err := service.VerifyOTP(context.Background(), newSession, code, session.Client{IPAddress: "10.0.0.9"})
	require.NoError(t, err)
	assert.Equal(t, session.StepDashboard, step)
	assert.Equal(t, session.StateAuthenticated, newSession.State)

	// 3. The promotion was persisted
	stored, err := store.Find(context.Background(), newSession.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StateAuthenticated, stored.State)

	// 4. A session not awaiting a code cannot replay verification
	_, err = service.VerifyOTP(context.Background(), newSession, code, session.Client{IPAddress: "10.0.0.9"})
	assert.Error(t, err)
}

/*
TestService_EnrollmentRoundTrip verifies the full forced-enrollment path:
begin, confirm with a valid code, and observe TOTP active on the account.
*/
func TestService_EnrollmentRoundTrip(t *testing.T) {
	account := testAccount(t, func(account *user.User) { account.RequireTwoFactor = true })
	service, repo, _, _ := newTestService(t, account)

	newSession, _, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
	})
	require.NoError(t, err)

	// 1. Begin: a pending secret is parked on the session, not the account
	enrollment, err := service.BeginTwoFactorEnrollment(context.Background(), newSession)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.OtpauthURL)
	assert.NotEmpty(t, newSession.PendingTOTPSecret)

	stored, err := repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.False(t, stored.TOTPEnabled)

	// 2. Confirm with a wrong code: still not enabled
	_, err = service.ConfirmTwoFactorEnrollment(context.Background(), newSession, "000000", session.Client{IPAddress: "10.0.0.9"})
	require.Error(t, err)

	// 3. Confirm with a valid code: account updated, session authenticated
	code, err := totp.GenerateCode(newSession.PendingTOTPSecret, time.Now())
	require.NoError(t, err)

	step, err := service.ConfirmTwoFactorEnrollment(context.Background(), newSession, code, session.Client{IPAddress: "10.0.0.9"})
	require.NoError(t, err)
	assert.Equal(t, session.StepDashboard, step)
	assert.Equal(t, session.StateAuthenticated, newSession.State)
	assert.Empty(t, newSession.PendingTOTPSecret)

	stored, err = repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.TOTPEnabled)
	assert.NotEmpty(t, stored.TOTPSecret)
}

// # Password Rotation

/*
TestService_ChangePassword verifies the rotation round trip: the account
flag lifts, the old session dies, and trivial re-use is rejected.
*/
func TestService_ChangePassword(t *testing.T) {
	account := testAccount(t, func(account *user.User) { account.MustChangePassword = true })
	service, repo, store, auditor := newTestService(t, account)

	newSession, _, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
	})
	require.NoError(t, err)

	// 1. Wrong current password: rejected and audited
	err = service.ChangePassword(context.Background(), newSession, "nope", "NewSecret99", session.Client{IPAddress: "10.0.0.9"})
	require.Error(t, err)
	assert.Equal(t, audit.StatusFailure, auditor.last().Status)

	// 2. Re-using the current password is rejected
	err = service.ChangePassword(context.Background(), newSession, testPassword, testPassword, session.Client{IPAddress: "10.0.0.9"})
	require.Error(t, err)

	// 3. Correct current password: rotated
	err = service.ChangePassword(context.Background(), newSession, testPassword, "NewSecret99", session.Client{IPAddress: "10.0.0.9"})
	require.NoError(t, err)

	// 4. The new hash verifies, the forced-change flag is lifted
	stored, err := repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("NewSecret99", stored.PasswordHash))
	assert.False(t, stored.MustChangePassword)

	// 5. The session from before the change is no longer valid
	_, err = store.Find(context.Background(), newSession.ID)
	assert.Error(t, err)
}

// # Lifecycle

/*
TestService_Logout verifies that logout destroys the stored session and is
audited.
*/
func TestService_Logout(t *testing.T) {
	service, _, store, auditor := newTestService(t, testAccount(t, nil))

	newSession, _, err := service.Login(context.Background(), session.LoginInput{
		Username: "n.admin", Password: testPassword,
	})
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), newSession, session.Client{IPAddress: "10.0.0.9"}))

	_, err = store.Find(context.Background(), newSession.ID)
	assert.Error(t, err)
	assert.Equal(t, audit.ActionLogout, auditor.last().Action)
}
