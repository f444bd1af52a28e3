package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/adapter"
	"rag-document-backend/internal/domain/ports/repository"
	"rag-document-backend/internal/domain/ports/service"
	"rag-document-backend/internal/domain/ports/storage"
	"rag-document-backend/internal/infra/metrics"
)

// Registered service names. Job payloads refer to these.
const (
	NameIngest = "collection.ingest"
	NameSearch = "collection.search"
	NameChat   = "collection.chat"
	NamePurge  = "collection.purge"
)

// Deps bundles the collaborators shared by the built-in services.
type Deps struct {
	Collections repository.CollectionRepository
	Documents   repository.DocumentRepository
	AI          adapter.AIServiceAdapter
	Files       storage.FileStore
	Log         *zerolog.Logger

	// Model names used when a collection or payload doesn't pick one.
	ChatModel      string
	EmbeddingModel string
}

// RegisterAll binds every built-in service into the registry.
func RegisterAll(reg *service.Registry, deps Deps) {
	reg.Register(NameIngest, func() (service.Service, error) { return NewIngestService(deps), nil })
	reg.Register(NameSearch, func() (service.Service, error) { return NewSearchService(deps), nil })
	reg.Register(NameChat, func() (service.Service, error) { return NewChatService(deps), nil })
	reg.Register(NamePurge, func() (service.Service, error) { return NewPurgeService(deps), nil })
}

// findCollection resolves a payload reference that may be a uuid or a name.
func findCollection(ctx context.Context, repo repository.CollectionRepository, ref string) (*model.Collection, error) {
	c, err := repo.FindByID(ctx, nil, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return repo.FindByName(ctx, nil, ref)
}

func (d Deps) embeddingModelFor(c *model.Collection) string {
	if c.EmbeddingModel != "" {
		return c.EmbeddingModel
	}
	return d.EmbeddingModel
}

// embed calls the AI adapter and records call latency per model.
func (d Deps) embed(ctx context.Context, embModel string, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := d.AI.Embed(ctx, embModel, texts)
	metrics.ObserveEmbedding(embModel, int(time.Since(start).Milliseconds()), err == nil)
	return vectors, err
}

// --- payload field helpers ---

func requireString(payload map[string]any, key string) (string, error) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing or empty field %q", key)
	}
	return v, nil
}

func optionalInt(payload map[string]any, key string, fallback int) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
