// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/netrack/internal/platform/dberr"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// PostgresRepository implements the [Repository] interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Insert appends one entry to the audit.log table.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Database errors
*/
func (repository *PostgresRepository) Insert(context context.Context, entry *Entry) error {
	const query = `
		INSERT INTO audit.log (
			id, userid, username, action, status, ipaddress, useragent, detail, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		entry.ID,
		nullableString(entry.UserID),
		entry.Username,
		entry.Action,
		entry.Status,
		entry.IPAddress,
		entry.UserAgent,
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_audit_repo_insert_failed: %w", err), "Audit entry")
	}

	return nil
}

/*
List returns a page of audit entries, newest first.

Parameters:
  - context: context.Context
  - params: pagination.Params
  - filter: Filter (zero values mean no constraint)

Returns:
  - []*Entry: Page of entries
  - int: Total matching entries
  - error: Database errors
*/
func (repository *PostgresRepository) List(context context.Context, params pagination.Params, filter Filter) ([]*Entry, int, error) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if filter.Username != "" {
		args = append(args, filter.Username)
		conditions = append(conditions, fmt.Sprintf("username = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM audit.log %s`, whereClause)
	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_audit_repo_count_failed: %w", err), "Audit entry")
	}

	args = append(args, params.Limit)
	limitPlaceholder := len(args)
	args = append(args, params.Offset())
	offsetPlaceholder := len(args)

	query := fmt.Sprintf(`
		SELECT id, COALESCE(userid, ''), username, action, status, ipaddress, useragent, detail, createdat
		FROM audit.log
		%s
		ORDER BY createdat DESC
		LIMIT $%d OFFSET $%d`, whereClause, limitPlaceholder, offsetPlaceholder)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_audit_repo_list_failed: %w", err), "Audit entry")
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry := &Entry{}
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Username, &entry.Action,
			&entry.Status, &entry.IPAddress, &entry.UserAgent, &entry.Detail, &entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(fmt.Errorf("postgres_audit_repo_scan_failed: %w", err), "Audit entry")
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}

// nullableString maps "" to SQL NULL for columns with FK semantics.
func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
