// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, TOTP)
// from the domain logic. It acts as an Infrastructure service injected into
// the Application layer via small interfaces.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// # Why custom claims?
//
// By embedding the UserID, Username, Role, and resolved permission names
// directly inside the JWT, the API middleware can authorize every request
// WITHOUT querying the database. The trade-off is that the permission list
// is frozen at issuance: a role change only reaches API clients when they
// log in again and receive a fresh token.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID      string   `json:"uid"`
	Username    string   `json:"unm"`
	Role        string   `json:"rol"`
	Permissions []string `json:"prm,omitempty"`

	// AllowedIPs optionally restricts the token to a set of client addresses.
	AllowedIPs []string `json:"aip,omitempty"`
}

// HasPermission reports whether the exact permission name is present in the
// claim set. There is no wildcard or hierarchical matching.
func (claims *AuthClaims) HasPermission(name string) bool {
	for _, permission := range claims.Permissions {
		if permission == name {
			return true
		}
	}
	return false
}

// TokenService handles generation and verification of JWT tokens using HS256.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from a shared signing secret.
//
// An empty secret is a configuration error: the process must refuse to start
// rather than fall back to a guessable default.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: JWT signing secret is empty (set JWT_SECRET)")
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// GenerateAccessToken creates a new signed JWT access token for a user.
//
// # Parameters
//   - userID: The ID of the account (becomes the token subject).
//   - username: The username of the account.
//   - role: The role name of the account.
//   - permissions: The role's resolved permission names, frozen into the token.
//   - allowedIPs: Optional client-address allowlist (nil disables the check).
//   - timeToLive: The duration before the token expires.
func (service *TokenService) GenerateAccessToken(userID, username, role string, permissions, allowedIPs []string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:      userID,
		Username:    username,
		Role:        role,
		Permissions: permissions,
		AllowedIPs:  allowedIPs,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
//
// Signature mismatch, expiry, and malformed tokens are all reported as a
// single error; callers must not surface the distinction to clients.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
