package model

import (
	"strings"
	"time"

	"rag-document-backend/internal/domain"

	"github.com/google/uuid"
)

// Collection is a named set of documents sharing one embedding model.
type Collection struct {
	ID             string    `json:"uuid"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	EmbeddingModel string    `json:"embedding_model"`
	CreatedAt      time.Time `json:"created"`
	UpdatedAt      time.Time `json:"updated"`
}

func NewCollection(name, description, embeddingModel string) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	return &Collection{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    description,
		EmbeddingModel: embeddingModel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (c *Collection) Touch() { c.UpdatedAt = time.Now().UTC() }
