package ai

import (
	"context"
	"strings"

	"rag-document-backend/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter is a deterministic stand-in for local development and seed
// data: embeddings are derived from the text bytes, chat echoes the last
// user message.
type NoopAIAdapter struct {
	dims int
}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{dims: 16}
}

func (a *NoopAIAdapter) Embed(_ context.Context, _ string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, a.dims)
		for j, r := range t {
			vec[j%a.dims] += float32(r%31) / 31
		}
		out[i] = vec
	}
	return out, nil
}

func (a *NoopAIAdapter) CountTokens(_ context.Context, _ string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(strings.Fields(m.Content))
	}
	return n, nil
}

func (a *NoopAIAdapter) Chat(_ context.Context, _ string, messages []adapter.Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return "echo: " + messages[i].Content, nil
		}
	}
	return "echo", nil
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	reply, err := a.Chat(ctx, model, messages)
	n, _ := a.CountTokens(ctx, model, messages)
	out := len(strings.Fields(reply))
	return reply, adapter.Usage{PromptTokens: n, CompletionTokens: out, TotalTokens: n + out}, err
}
