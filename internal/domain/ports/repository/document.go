package repository

import (
	"context"

	"rag-document-backend/internal/domain/model"
)

type DocumentRepository interface {
	SaveBatch(ctx context.Context, qx Tx, docs []*model.Document) error
	FindByID(ctx context.Context, qx Tx, id string) (*model.Document, error)
	ListByCollection(ctx context.Context, qx Tx, collectionID string, offset, limit int) ([]*model.Document, error)
	CountByCollection(ctx context.Context, qx Tx, collectionID string) (int, error)

	// TopKByEmbedding ranks the collection's documents by cosine similarity
	// against the query embedding.
	TopKByEmbedding(ctx context.Context, qx Tx, collectionID string, embedding []float32, k int) ([]*model.ScoredDocument, error)

	// DeleteByCollection removes all documents of a collection, returning
	// the number of rows deleted.
	DeleteByCollection(ctx context.Context, qx Tx, collectionID string) (int, error)
}
