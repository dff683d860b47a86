// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/netrack/internal/platform/dberr"
	"github.com/taibuivan/netrack/pkg/pagination"
)

const deviceColumns = `
	id, name, hostname, managementip, subnetid, vendor, model,
	location, status, notes, createdat, updatedat`

// PostgresRepository implements the [Repository] interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (repository *PostgresRepository) Create(context context.Context, device *Device) error {
	const query = `
		INSERT INTO inventory.device (
			id, name, hostname, managementip, subnetid, vendor, model,
			location, status, notes, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		device.ID, device.Name, device.Hostname, device.ManagementIP, device.SubnetID,
		device.Vendor, device.Model, device.Location, device.Status, device.Notes,
		device.CreatedAt, device.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_device_repo_create_failed: %w", err), "Device")
	}

	return nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory.device WHERE id = $1`, deviceColumns)

	device := &Device{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&device.ID, &device.Name, &device.Hostname, &device.ManagementIP, &device.SubnetID,
		&device.Vendor, &device.Model, &device.Location, &device.Status, &device.Notes,
		&device.CreatedAt, &device.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Device")
	}

	return device, nil
}

func (repository *PostgresRepository) List(context context.Context, params pagination.Params, filter Filter) ([]*Device, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.SubnetID != "" {
		args = append(args, filter.SubnetID)
		conditions = append(conditions, fmt.Sprintf("subnetid = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM inventory.device %s`, whereClause)
	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_device_repo_count_failed: %w", err), "Device")
	}

	args = append(args, params.Limit)
	limitPlaceholder := len(args)
	args = append(args, params.Offset())
	offsetPlaceholder := len(args)

	query := fmt.Sprintf(`
		SELECT %s FROM inventory.device
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d`, deviceColumns, whereClause, limitPlaceholder, offsetPlaceholder)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_device_repo_list_failed: %w", err), "Device")
	}
	defer rows.Close()

	devices := make([]*Device, 0)
	for rows.Next() {
		device := &Device{}
		err := rows.Scan(
			&device.ID, &device.Name, &device.Hostname, &device.ManagementIP, &device.SubnetID,
			&device.Vendor, &device.Model, &device.Location, &device.Status, &device.Notes,
			&device.CreatedAt, &device.UpdatedAt,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(fmt.Errorf("postgres_device_repo_scan_failed: %w", err), "Device")
		}
		devices = append(devices, device)
	}

	return devices, total, nil
}

func (repository *PostgresRepository) Update(context context.Context, device *Device) error {
	const query = `
		UPDATE inventory.device
		SET name = $2, hostname = $3, managementip = $4, subnetid = $5, vendor = $6,
		    model = $7, location = $8, status = $9, notes = $10, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query,
		device.ID, device.Name, device.Hostname, device.ManagementIP, device.SubnetID,
		device.Vendor, device.Model, device.Location, device.Status, device.Notes,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_device_repo_update_failed: %w", err), "Device")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Device")
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM inventory.device WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_device_repo_delete_failed: %w", err), "Device")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Device")
	}

	return nil
}
