// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// # Security
//
// Raw Postgres error text (queries, constraint names, column names) is never
// propagated to clients. Every classified error carries only a client-safe
// message; the original error stays attached as the cause for logging.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/netrack/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
//
// # Classification
//
//   - pgx.ErrNoRows            → 404 NOT_FOUND for the named resource
//   - SQLSTATE 23505 (unique)  → 409 CONFLICT
//   - SQLSTATE 23503 (fkey)    → 400 VALIDATION_ERROR (referenced entity absent)
//   - anything else            → 500 INTERNAL_ERROR (cause kept server-side)
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			return &apperr.AppError{
				Code:       "CONFLICT",
				Message:    resource + " already exists",
				HTTPStatus: 409,
				Cause:      err,
			}
		case pgerrcode.ForeignKeyViolation:
			return &apperr.AppError{
				Code:       "VALIDATION_ERROR",
				Message:    "Referenced " + resource + " does not exist or is still in use",
				HTTPStatus: 400,
				Cause:      err,
			}
		}
	}

	return apperr.Internal(err)
}

// IsNotFound reports whether err was classified as a missing row.
func IsNotFound(err error) bool {
	ae := apperr.As(err)
	return ae != nil && ae.Code == "NOT_FOUND"
}
