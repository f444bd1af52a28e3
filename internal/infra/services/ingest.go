package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rag-document-backend/internal/domain/model"
)

// IngestService chunks the submitted documents, embeds every chunk with the
// collection's embedding model and stores the results. An ingestion report
// is written next to the job's other artifacts.
type IngestService struct {
	deps Deps
	log  zerolog.Logger
}

func NewIngestService(deps Deps) *IngestService {
	return &IngestService{
		deps: deps,
		log:  deps.Log.With().Str("service", NameIngest).Logger(),
	}
}

func (s *IngestService) Validate(payload map[string]any) error {
	if _, err := requireString(payload, "collection"); err != nil {
		return err
	}
	docs, ok := payload["documents"].([]any)
	if !ok || len(docs) == 0 {
		return fmt.Errorf("field %q must be a non-empty list", "documents")
	}
	for i, raw := range docs {
		doc, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("documents[%d] must be an object", i)
		}
		if _, err := requireString(doc, "content"); err != nil {
			return fmt.Errorf("documents[%d]: %v", i, err)
		}
	}
	return nil
}

func (s *IngestService) Execute(ctx context.Context, payload map[string]any) (map[string]any, error) {
	ref, _ := payload["collection"].(string)
	coll, err := findCollection(ctx, s.deps.Collections, ref)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", ref, err)
	}

	chunkTokens := optionalInt(payload, "chunk_tokens", defaultChunkTokens)
	docsIn, _ := payload["documents"].([]any)

	var (
		stored      []*model.Document
		totalTokens int
	)
	for i, raw := range docsIn {
		in, _ := raw.(map[string]any)
		title, _ := in["title"].(string)
		source, _ := in["source"].(string)
		content, _ := in["content"].(string)

		chunks := splitByTokens(content, chunkTokens)
		texts := make([]string, len(chunks))
		for j, c := range chunks {
			texts[j] = c.Text
		}
		vectors, err := s.deps.embed(ctx, s.deps.embeddingModelFor(coll), texts)
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embed document %d: got %d vectors for %d chunks", i, len(vectors), len(chunks))
		}
		for j, c := range chunks {
			stored = append(stored, model.NewDocument(coll.ID, title, source, j, c.Text, c.Tokens, vectors[j]))
			totalTokens += c.Tokens
		}
	}

	if err := s.deps.Documents.SaveBatch(ctx, nil, stored); err != nil {
		return nil, fmt.Errorf("save documents: %w", err)
	}

	result := map[string]any{
		"collection": coll.ID,
		"documents":  len(docsIn),
		"chunks":     len(stored),
		"tokens":     totalTokens,
	}
	s.writeReport(ctx, payload, coll, result)

	s.log.Info().Str("collection", coll.ID).Int("chunks", len(stored)).Msg("ingestion finished")
	return result, nil
}

// writeReport is best-effort: a report write failure never fails the job.
func (s *IngestService) writeReport(ctx context.Context, payload map[string]any, coll *model.Collection, result map[string]any) {
	jobID, _ := payload[model.PayloadKeyJobID].(string)
	if jobID == "" || s.deps.Files == nil {
		return
	}
	report := map[string]any{
		"collection": coll.Name,
		"finished":   time.Now().UTC().Format(time.RFC3339),
		"result":     result,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err == nil {
		_, err = s.deps.Files.WriteJobFile(ctx, jobID, "ingestion-report.json", data)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("job_id", jobID).Msg("could not write ingestion report")
	}
}
