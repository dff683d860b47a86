// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/netrack/internal/platform/sec"
)

/*
TestTokenService_RoundTrip verifies that a generated token carries all
claims back through verification.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService("test-signing-secret", "netrack")
	require.NoError(t, err)

	permissions := []string{"device.read", "subnet.read"}
	allowedIPs := []string{"10.0.0.5"}

	// 1. Generate
	signed, err := service.GenerateAccessToken("user-1", "alice", "operator", permissions, allowedIPs, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	// 2. Verify
	claims, err := service.VerifyToken(signed)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, permissions, claims.Permissions)
	assert.Equal(t, allowedIPs, claims.AllowedIPs)
	assert.Equal(t, "netrack", claims.Issuer)
}

/*
TestTokenService_RejectsExpired verifies that an expired token fails verification.
*/
func TestTokenService_RejectsExpired(t *testing.T) {
	service, err := sec.NewTokenService("test-signing-secret", "netrack")
	require.NoError(t, err)

	// Negative TTL puts the expiry in the past
	signed, err := service.GenerateAccessToken("user-1", "alice", "operator", nil, nil, -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(signed)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsWrongSecret verifies that tokens signed with a
different key are refused.
*/
func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuing, err := sec.NewTokenService("secret-a", "netrack")
	require.NoError(t, err)
	verifying, err := sec.NewTokenService("secret-b", "netrack")
	require.NoError(t, err)

	signed, err := issuing.GenerateAccessToken("user-1", "alice", "operator", nil, nil, time.Hour)
	require.NoError(t, err)

	_, err = verifying.VerifyToken(signed)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsGarbage verifies that non-JWT input fails cleanly.
*/
func TestTokenService_RejectsGarbage(t *testing.T) {
	service, err := sec.NewTokenService("test-signing-secret", "netrack")
	require.NoError(t, err)

	_, err = service.VerifyToken("not.a.token")
	assert.Error(t, err)
}

/*
TestNewTokenService_EmptySecret verifies the startup guard against a
missing signing secret.
*/
func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", "netrack")
	assert.Error(t, err)
}

/*
TestAuthClaims_HasPermission checks the exact-match permission lookup.
*/
func TestAuthClaims_HasPermission(t *testing.T) {
	claims := &sec.AuthClaims{
		Permissions: []string{"device.read", "device.create"},
	}

	assert.True(t, claims.HasPermission("device.read"))
	assert.False(t, claims.HasPermission("device.delete"))

	// No wildcard matching
	assert.False(t, claims.HasPermission("device.*"))
	assert.False(t, claims.HasPermission("device"))
}
