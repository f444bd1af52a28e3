package repository

import (
	"context"

	"rag-document-backend/internal/domain/model"
)

type CollectionRepository interface {
	Save(ctx context.Context, qx Tx, c *model.Collection) error
	FindByID(ctx context.Context, qx Tx, id string) (*model.Collection, error)
	FindByName(ctx context.Context, qx Tx, name string) (*model.Collection, error)
	ListAll(ctx context.Context, qx Tx) ([]*model.Collection, error)
	Delete(ctx context.Context, qx Tx, id string) error
}
