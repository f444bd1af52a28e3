package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const defaultTopK = 5

// SearchService embeds the query text and ranks the collection's documents
// by cosine similarity.
type SearchService struct {
	deps Deps
	log  zerolog.Logger
}

func NewSearchService(deps Deps) *SearchService {
	return &SearchService{
		deps: deps,
		log:  deps.Log.With().Str("service", NameSearch).Logger(),
	}
}

func (s *SearchService) Validate(payload map[string]any) error {
	if _, err := requireString(payload, "collection"); err != nil {
		return err
	}
	if _, err := requireString(payload, "query"); err != nil {
		return err
	}
	return nil
}

func (s *SearchService) Execute(ctx context.Context, payload map[string]any) (map[string]any, error) {
	ref, _ := payload["collection"].(string)
	query, _ := payload["query"].(string)
	topK := optionalInt(payload, "top_k", defaultTopK)

	coll, err := findCollection(ctx, s.deps.Collections, ref)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", ref, err)
	}

	vectors, err := s.deps.embed(ctx, s.deps.embeddingModelFor(coll), []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}

	hits, err := s.deps.Documents.TopKByEmbedding(ctx, nil, coll.ID, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	matches := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, map[string]any{
			"uuid":    h.Document.ID,
			"title":   h.Document.Title,
			"source":  h.Document.Source,
			"chunk":   h.Document.Chunk,
			"content": h.Document.Content,
			"score":   h.Score,
		})
	}

	s.log.Debug().Str("collection", coll.ID).Int("matches", len(matches)).Msg("search finished")
	return map[string]any{
		"collection": coll.ID,
		"query":      query,
		"matches":    matches,
	}, nil
}
