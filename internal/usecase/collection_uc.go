package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
)

// CollectionUseCase manages document collections.
type CollectionUseCase struct {
	collections repository.CollectionRepository
	documents   repository.DocumentRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewCollectionUseCase(collections repository.CollectionRepository, documents repository.DocumentRepository, tm repository.TransactionManager, logger *zerolog.Logger) *CollectionUseCase {
	ucLog := logger.With().Str("component", "CollectionUseCase").Logger()
	return &CollectionUseCase{collections: collections, documents: documents, tm: tm, log: &ucLog}
}

func (uc *CollectionUseCase) Create(ctx context.Context, name, description, embeddingModel string) (*model.Collection, error) {
	c, err := model.NewCollection(name, description, embeddingModel)
	if err != nil {
		return nil, err
	}
	if err := uc.collections.Save(ctx, nil, c); err != nil {
		return nil, err
	}
	uc.log.Info().Str("collection_id", c.ID).Str("name", c.Name).Msg("collection created")
	return c, nil
}

func (uc *CollectionUseCase) Get(ctx context.Context, id string) (*model.Collection, error) {
	return uc.collections.FindByID(ctx, nil, id)
}

func (uc *CollectionUseCase) List(ctx context.Context) ([]*model.Collection, error) {
	return uc.collections.ListAll(ctx, nil)
}

func (uc *CollectionUseCase) CountDocuments(ctx context.Context, id string) (int, error) {
	return uc.documents.CountByCollection(ctx, nil, id)
}

// Delete removes the collection and its documents in one transaction.
func (uc *CollectionUseCase) Delete(ctx context.Context, id string) error {
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.documents.DeleteByCollection(ctx, tx, id); err != nil {
			return err
		}
		return uc.collections.Delete(ctx, tx, id)
	})
}
