package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

// EntityRepositoryPG implements domain.EntityRepository. The unique source
// content id column is what makes approve idempotent from this side.
type EntityRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewEntityRepository creates an entity repository backed by PostgreSQL.
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepositoryPG {
	return &EntityRepositoryPG{pool: pool}
}

// Save stores a materialized entity. A repeat save for the same source
// content id is a no-op rather than a duplicate.
func (r *EntityRepositoryPG) Save(ctx context.Context, entity *domain.MaterializedEntity) error {
	query := `
INSERT INTO materialized_entities (entity_id, content_kind, source_content_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (source_content_id) DO NOTHING;
`
	_, err := r.pool.Exec(ctx, query,
		entity.EntityID,
		entity.Kind,
		entity.SourceContentID,
		entity.CreatedAt,
	)
	return err
}

// GetBySource fetches the entity created from the given content id, if any.
func (r *EntityRepositoryPG) GetBySource(ctx context.Context, contentID string) (*domain.MaterializedEntity, error) {
	query := `
SELECT entity_id, content_kind, source_content_id, created_at
FROM materialized_entities
WHERE source_content_id = $1;
`
	row := r.pool.QueryRow(ctx, query, contentID)
	var entity domain.MaterializedEntity
	if err := row.Scan(&entity.EntityID, &entity.Kind, &entity.SourceContentID, &entity.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

var _ domain.EntityRepository = (*EntityRepositoryPG)(nil)
