package tag

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

const tagColumns = `id, name, slug, description, createdat, updatedat`

func (repository *PostgresRepository) Create(context context.Context, tag *Tag) error {
	const query = `
		INSERT INTO inventory.tag (id, name, slug, description, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		tag.ID, tag.Name, tag.Slug, tag.Description, tag.CreatedAt, tag.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_tag_repo_create_failed: %w", err), "Tag")
	}

	return nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Tag, error) {
	const query = `SELECT ` + tagColumns + ` FROM inventory.tag WHERE id = $1`
	return repository.findOne(context, query, id)
}

func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Tag, error) {
	const query = `SELECT ` + tagColumns + ` FROM inventory.tag WHERE slug = $1`
	return repository.findOne(context, query, slug)
}

func (repository *PostgresRepository) findOne(context context.Context, query, arg string) (*Tag, error) {
	tag := &Tag{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&tag.ID, &tag.Name, &tag.Slug, &tag.Description, &tag.CreatedAt, &tag.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Tag")
	}
	return tag, nil
}

func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*Tag, int, error) {
	const countQuery = `SELECT COUNT(*) FROM inventory.tag`

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_tag_repo_count_failed: %w", err), "Tag")
	}

	const query = `
		SELECT ` + tagColumns + `
		FROM inventory.tag
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres_tag_repo_list_failed: %w", err), "Tag")
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return nil, 0, err
	}

	return tags, total, nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	// Device associations are removed by ON DELETE CASCADE on the join table.
	const query = `DELETE FROM inventory.tag WHERE id = $1`

	commandTag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_tag_repo_delete_failed: %w", err), "Tag")
	}
	if commandTag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Tag")
	}

	return nil
}

func (repository *PostgresRepository) Attach(context context.Context, deviceID, tagID string) error {
	const query = `
		INSERT INTO inventory.device_tag (deviceid, tagid)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := repository.pool.Exec(context, query, deviceID, tagID); err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_tag_repo_attach_failed: %w", err), "Tag")
	}

	return nil
}

func (repository *PostgresRepository) Detach(context context.Context, deviceID, tagID string) error {
	const query = `DELETE FROM inventory.device_tag WHERE deviceid = $1 AND tagid = $2`

	if _, err := repository.pool.Exec(context, query, deviceID, tagID); err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_tag_repo_detach_failed: %w", err), "Tag")
	}

	return nil
}

func (repository *PostgresRepository) TagsForDevice(context context.Context, deviceID string) ([]*Tag, error) {
	const query = `
		SELECT t.id, t.name, t.slug, t.description, t.createdat, t.updatedat
		FROM inventory.tag t
		JOIN inventory.device_tag dt ON dt.tagid = t.id
		WHERE dt.deviceid = $1
		ORDER BY t.name ASC`

	rows, err := repository.pool.Query(context, query, deviceID)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_tag_repo_tags_for_device_failed: %w", err), "Tag")
	}
	defer rows.Close()

	return scanTags(rows)
}

func scanTags(rows pgx.Rows) ([]*Tag, error) {
	tags := make([]*Tag, 0)
	for rows.Next() {
		tag := &Tag{}
		err := rows.Scan(
			&tag.ID, &tag.Name, &tag.Slug, &tag.Description, &tag.CreatedAt, &tag.UpdatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(fmt.Errorf("postgres_tag_repo_scan_failed: %w", err), "Tag")
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
