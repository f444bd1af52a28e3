package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
)

var _ repository.DocumentRepository = (*documentRepo)(nil)

type documentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *documentRepo {
	return &documentRepo{pool: pool}
}

const documentColumns = `id, collection_id, title, source, chunk, content, tokens, embedding, created_at`

func (r *documentRepo) SaveBatch(ctx context.Context, qx repository.Tx, docs []*model.Document) error {
	const q = `
INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  content = EXCLUDED.content,
  tokens = EXCLUDED.tokens,
  embedding = EXCLUDED.embedding;`
	for _, d := range docs {
		emb, err := json.Marshal(d.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		if _, err := execSQL(ctx, r.pool, qx, q,
			d.ID, d.CollectionID, d.Title, d.Source, d.Chunk,
			d.Content, d.Tokens, emb, d.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *documentRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, qx, q, id)
	if err != nil {
		return nil, err
	}
	return scanDocument(row)
}

func (r *documentRepo) ListByCollection(ctx context.Context, qx repository.Tx, collectionID string, offset, limit int) ([]*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents
WHERE collection_id = $1 ORDER BY id LIMIT $2 OFFSET $3;`
	rows, err := pickRows(ctx, r.pool, qx, q, collectionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *documentRepo) CountByCollection(ctx context.Context, qx repository.Tx, collectionID string) (int, error) {
	row, err := pickRow(ctx, r.pool, qx, `SELECT COUNT(*) FROM documents WHERE collection_id = $1;`, collectionID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// TopKByEmbedding scores the collection's documents by cosine similarity.
// Scoring happens in-process; the corpus per collection is expected to be
// small enough that a sequential scan is acceptable.
func (r *documentRepo) TopKByEmbedding(ctx context.Context, qx repository.Tx, collectionID string, embedding []float32, k int) ([]*model.ScoredDocument, error) {
	if k <= 0 {
		k = 5
	}
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE collection_id = $1;`
	rows, err := pickRows(ctx, r.pool, qx, q, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}

	scored := make([]*model.ScoredDocument, 0, len(docs))
	for _, d := range docs {
		score := cosine(embedding, d.Embedding)
		scored = append(scored, &model.ScoredDocument{Document: *d, Score: score})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (r *documentRepo) DeleteByCollection(ctx context.Context, qx repository.Tx, collectionID string) (int, error) {
	tag, err := execSQL(ctx, r.pool, qx, `DELETE FROM documents WHERE collection_id = $1;`, collectionID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func collectDocuments(rows pgx.Rows) ([]*model.Document, error) {
	var out []*model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var (
		d   model.Document
		emb []byte
	)
	err := row.Scan(&d.ID, &d.CollectionID, &d.Title, &d.Source, &d.Chunk,
		&d.Content, &d.Tokens, &emb, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(emb) > 0 {
		if err := json.Unmarshal(emb, &d.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}
	return &d, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
