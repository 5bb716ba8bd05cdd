package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/offset-service/internal/domain"
)

// OffsetRepository manages named offset persistence.
type OffsetRepository interface {
	Create(ctx context.Context, offset *domain.NamedOffset) error
	Update(ctx context.Context, offset *domain.NamedOffset) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.NamedOffset, error)
	FindByLabelAndOwner(ctx context.Context, label, ownerID string) (*domain.NamedOffset, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.NamedOffset, error)
}

type offsetRepository struct {
	pool *pgxpool.Pool
}

// NewOffsetRepository builds the repository.
func NewOffsetRepository(pool *pgxpool.Pool) OffsetRepository {
	return &offsetRepository{pool: pool}
}

func (r *offsetRepository) Create(ctx context.Context, offset *domain.NamedOffset) error {
	if offset.ID == "" {
		offset.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO named_offsets (id, label, city, utc_offset, owner_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		offset.ID,
		offset.Label,
		offset.City,
		offset.Offset,
		offset.OwnerID,
	).Scan(&offset.CreatedAt, &offset.UpdatedAt)
}

// Update rewrites label, city and offset. The owner column is never touched.
func (r *offsetRepository) Update(ctx context.Context, offset *domain.NamedOffset) error {
	const query = `
        UPDATE named_offsets SET label=$1, city=$2, utc_offset=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		offset.Label,
		offset.City,
		offset.Offset,
		offset.ID,
	).Scan(&offset.UpdatedAt)
}

func (r *offsetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM named_offsets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *offsetRepository) GetByID(ctx context.Context, id string) (*domain.NamedOffset, error) {
	const query = `
        SELECT id, label, city, utc_offset, owner_id, created_at, updated_at
        FROM named_offsets WHERE id=$1`
	return scanOffset(r.pool.QueryRow(ctx, query, id))
}

// FindByLabelAndOwner returns the oldest match when an owner reuses a label.
func (r *offsetRepository) FindByLabelAndOwner(ctx context.Context, label, ownerID string) (*domain.NamedOffset, error) {
	const query = `
        SELECT id, label, city, utc_offset, owner_id, created_at, updated_at
        FROM named_offsets WHERE label=$1 AND owner_id=$2
        ORDER BY created_at, id
        LIMIT 1`
	return scanOffset(r.pool.QueryRow(ctx, query, label, ownerID))
}

func (r *offsetRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.NamedOffset, error) {
	const query = `
        SELECT id, label, city, utc_offset, owner_id, created_at, updated_at
        FROM named_offsets WHERE owner_id=$1
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.NamedOffset{}
	for rows.Next() {
		offset, err := scanOffset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *offset)
	}
	return result, rows.Err()
}

func scanOffset(row pgx.Row) (*domain.NamedOffset, error) {
	var offset domain.NamedOffset
	if err := row.Scan(
		&offset.ID,
		&offset.Label,
		&offset.City,
		&offset.Offset,
		&offset.OwnerID,
		&offset.CreatedAt,
		&offset.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &offset, nil
}
