package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rag-document-backend/internal/domain/ports/adapter"
	"rag-document-backend/internal/infra/metrics"
)

const chatSystemPrompt = "You answer strictly from the provided context. " +
	"If the context does not contain the answer, say you don't know."

// ChatService answers a question over a collection: retrieve the closest
// chunks, inline them as context and ask the chat model.
type ChatService struct {
	deps Deps
	log  zerolog.Logger
}

func NewChatService(deps Deps) *ChatService {
	return &ChatService{
		deps: deps,
		log:  deps.Log.With().Str("service", NameChat).Logger(),
	}
}

func (s *ChatService) Validate(payload map[string]any) error {
	if _, err := requireString(payload, "collection"); err != nil {
		return err
	}
	if _, err := requireString(payload, "question"); err != nil {
		return err
	}
	if raw, ok := payload["history"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("field %q must be a list", "history")
		}
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("history[%d] must be an object", i)
			}
			if _, err := requireString(m, "role"); err != nil {
				return fmt.Errorf("history[%d]: %v", i, err)
			}
			if _, err := requireString(m, "content"); err != nil {
				return fmt.Errorf("history[%d]: %v", i, err)
			}
		}
	}
	return nil
}

func (s *ChatService) Execute(ctx context.Context, payload map[string]any) (map[string]any, error) {
	ref, _ := payload["collection"].(string)
	question, _ := payload["question"].(string)
	topK := optionalInt(payload, "top_k", defaultTopK)

	coll, err := findCollection(ctx, s.deps.Collections, ref)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", ref, err)
	}

	vectors, err := s.deps.embed(ctx, s.deps.embeddingModelFor(coll), []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed question: got %d vectors", len(vectors))
	}
	hits, err := s.deps.Documents.TopKByEmbedding(ctx, nil, coll.ID, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	var b strings.Builder
	sources := make([]map[string]any, 0, len(hits))
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, h.Document.Title, h.Document.Content)
		sources = append(sources, map[string]any{
			"uuid":   h.Document.ID,
			"title":  h.Document.Title,
			"source": h.Document.Source,
			"chunk":  h.Document.Chunk,
			"score":  h.Score,
		})
	}

	messages := []adapter.Message{{Role: "system", Content: chatSystemPrompt}}
	if raw, ok := payload["history"].([]any); ok {
		for _, item := range raw {
			m, _ := item.(map[string]any)
			role, _ := m["role"].(string)
			content, _ := m["content"].(string)
			messages = append(messages, adapter.Message{Role: role, Content: content})
		}
	}
	messages = append(messages, adapter.Message{
		Role:    "user",
		Content: fmt.Sprintf("Context:\n%s\nQuestion: %s", b.String(), question),
	})

	chatModel := s.deps.ChatModel
	start := time.Now()
	answer, usage, err := s.deps.AI.ChatWithUsage(ctx, chatModel, messages)
	metrics.ObserveChatUsage(chatModel, usage.PromptTokens, usage.CompletionTokens,
		int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	s.log.Info().
		Str("collection", coll.ID).
		Int("sources", len(sources)).
		Int("tokens_total", usage.TotalTokens).
		Msg("chat answered")

	return map[string]any{
		"collection": coll.ID,
		"answer":     answer,
		"sources":    sources,
		"usage": map[string]any{
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.TotalTokens,
		},
	}, nil
}
