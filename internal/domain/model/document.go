package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Document is one embedded chunk of a source document. IDs are ULIDs so
// chunks of the same ingestion sort in insertion order.
type Document struct {
	ID           string    `json:"uuid"`
	CollectionID string    `json:"collection"`
	Title        string    `json:"title"`
	Source       string    `json:"source"`
	Chunk        int       `json:"chunk"`
	Content      string    `json:"content"`
	Tokens       int       `json:"tokens"`
	Embedding    []float32 `json:"-"`
	CreatedAt    time.Time `json:"created"`
}

func NewDocument(collectionID, title, source string, chunk int, content string, tokens int, embedding []float32) *Document {
	return &Document{
		ID:           ulid.Make().String(),
		CollectionID: collectionID,
		Title:        title,
		Source:       source,
		Chunk:        chunk,
		Content:      content,
		Tokens:       tokens,
		Embedding:    embedding,
		CreatedAt:    time.Now().UTC(),
	}
}

// ScoredDocument is a similarity-search hit.
type ScoredDocument struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}
