// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/internal/platform/dberr"
)

/*
TestWrap_Classification maps the raw database failures onto the
client-facing error taxonomy.
*/
func TestWrap_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			"no_rows_is_not_found",
			pgx.ErrNoRows,
			"NOT_FOUND",
			404,
		},
		{
			"wrapped_no_rows_is_not_found",
			fmt.Errorf("postgres_account_repo_find_failed: %w", pgx.ErrNoRows),
			"NOT_FOUND",
			404,
		},
		{
			"unique_violation_is_conflict",
			&pgconn.PgError{Code: pgerrcode.UniqueViolation},
			"CONFLICT",
			409,
		},
		{
			"foreign_key_violation_is_validation",
			&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			"VALIDATION_ERROR",
			400,
		},
		{
			"unknown_error_is_internal",
			errors.New("connection reset by peer"),
			"INTERNAL_ERROR",
			500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "Account")
			require.Error(t, wrapped)

			ae := apperr.As(wrapped)
			require.NotNil(t, ae)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Equal(t, tt.wantStatus, ae.HTTPStatus)
		})
	}
}

/*
TestWrap_NeverLeaksRawText ensures the client-facing message contains no
Postgres internals.
*/
func TestWrap_NeverLeaksRawText(t *testing.T) {
	raw := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "account_username_key",
		Detail:         "Key (username)=(alice) already exists.",
	}

	wrapped := dberr.Wrap(raw, "Account")
	ae := apperr.As(wrapped)
	require.NotNil(t, ae)

	assert.NotContains(t, ae.Message, "account_username_key")
	assert.NotContains(t, ae.Message, "alice")
	assert.Equal(t, "Account already exists", ae.Message)
}

/*
TestWrap_Nil confirms a nil error passes through untouched.
*/
func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "Account"))
}

/*
TestIsNotFound checks the classification helper.
*/
func TestIsNotFound(t *testing.T) {
	assert.True(t, dberr.IsNotFound(dberr.Wrap(pgx.ErrNoRows, "Device")))
	assert.False(t, dberr.IsNotFound(dberr.Wrap(errors.New("boom"), "Device")))
	assert.False(t, dberr.IsNotFound(nil))
}
