// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subnet

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
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

func (repository *PostgresRepository) Create(context context.Context, subnet *Subnet) error {
	const query = `
		INSERT INTO inventory.subnet (id, name, cidr, vlanid, description, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	if subnet.CreatedAt.IsZero() {
		subnet.CreatedAt = now
	}
	subnet.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		subnet.ID, subnet.Name, subnet.CIDR, subnet.VLANID, subnet.Description,
		subnet.CreatedAt, subnet.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_subnet_repo_create_failed: %w", err), "Subnet")
	}

	return nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Subnet, error) {
	const query = `
		SELECT id, name, cidr, vlanid, description, createdat, updatedat
		FROM inventory.subnet
		WHERE id = $1`

	subnet := &Subnet{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&subnet.ID, &subnet.Name, &subnet.CIDR, &subnet.VLANID, &subnet.Description,
		&subnet.CreatedAt, &subnet.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Subnet")
	}

	return subnet, nil
}

func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*Subnet, int, error) {
	const countQuery = `SELECT COUNT(*) FROM inventory.subnet`

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_subnet_repo_count_failed: %w", err), "Subnet")
	}

	const query = `
		SELECT id, name, cidr, vlanid, description, createdat, updatedat
		FROM inventory.subnet
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_subnet_repo_list_failed: %w", err), "Subnet")
	}
	defer rows.Close()

	subnets := make([]*Subnet, 0)
	for rows.Next() {
		subnet := &Subnet{}
		err := rows.Scan(
			&subnet.ID, &subnet.Name, &subnet.CIDR, &subnet.VLANID, &subnet.Description,
			&subnet.CreatedAt, &subnet.UpdatedAt,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(fmt.Errorf("postgres_subnet_repo_scan_failed: %w", err), "Subnet")
		}
		subnets = append(subnets, subnet)
	}

	return subnets, total, nil
}

func (repository *PostgresRepository) Update(context context.Context, subnet *Subnet) error {
	const query = `
		UPDATE inventory.subnet
		SET name = $2, cidr = $3, vlanid = $4, description = $5, updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query,
		subnet.ID, subnet.Name, subnet.CIDR, subnet.VLANID, subnet.Description,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_subnet_repo_update_failed: %w", err), "Subnet")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Subnet")
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	// Devices referencing this subnet surface as a foreign-key violation,
	// mapped to a validation error by the dberr bridge.
	const query = `DELETE FROM inventory.subnet WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_subnet_repo_delete_failed: %w", err), "Subnet")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Subnet")
	}

	return nil
}
