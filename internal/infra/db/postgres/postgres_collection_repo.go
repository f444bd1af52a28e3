package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
)

var _ repository.CollectionRepository = (*collectionRepo)(nil)

type collectionRepo struct {
	pool *pgxpool.Pool
}

func NewCollectionRepo(pool *pgxpool.Pool) *collectionRepo {
	return &collectionRepo{pool: pool}
}

const collectionColumns = `id, name, description, embedding_model, created_at, updated_at`

func (r *collectionRepo) Save(ctx context.Context, qx repository.Tx, c *model.Collection) error {
	c.Touch()
	const q = `
INSERT INTO collections (` + collectionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  description = EXCLUDED.description,
  embedding_model = EXCLUDED.embedding_model,
  updated_at = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, qx, q,
		c.ID, c.Name, c.Description, c.EmbeddingModel, c.CreatedAt, c.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *collectionRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Collection, error) {
	const q = `SELECT ` + collectionColumns + ` FROM collections WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, qx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCollection(row)
}

func (r *collectionRepo) FindByName(ctx context.Context, qx repository.Tx, name string) (*model.Collection, error) {
	const q = `SELECT ` + collectionColumns + ` FROM collections WHERE name = $1;`
	row, err := pickRow(ctx, r.pool, qx, q, name)
	if err != nil {
		return nil, err
	}
	return scanCollection(row)
}

func (r *collectionRepo) ListAll(ctx context.Context, qx repository.Tx) ([]*model.Collection, error) {
	const q = `SELECT ` + collectionColumns + ` FROM collections ORDER BY created_at DESC;`
	rows, err := pickRows(ctx, r.pool, qx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *collectionRepo) Delete(ctx context.Context, qx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, qx, `DELETE FROM collections WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCollection(row pgx.Row) (*model.Collection, error) {
	var c model.Collection
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.EmbeddingModel, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
