package services

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const defaultChunkTokens = 400

// chunk holds one slice of a source document plus its token count.
type chunk struct {
	Text   string
	Tokens int
}

// splitByTokens cuts text into chunks of at most maxTokens tokens using the
// cl100k_base encoding. Falls back to whitespace-word splitting when the
// encoding is unavailable (offline test runs).
func splitByTokens(text string, maxTokens int) []chunk {
	if maxTokens <= 0 {
		maxTokens = defaultChunkTokens
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return splitByWords(text, maxTokens)
	}

	ids := enc.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return []chunk{{Text: text, Tokens: len(ids)}}
	}

	var out []chunk
	for start := 0; start < len(ids); start += maxTokens {
		end := start + maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, chunk{
			Text:   enc.Decode(ids[start:end]),
			Tokens: end - start,
		})
	}
	return out
}

func splitByWords(text string, maxTokens int) []chunk {
	words := strings.Fields(text)
	var out []chunk
	for start := 0; start < len(words); start += maxTokens {
		end := start + maxTokens
		if end > len(words) {
			end = len(words)
		}
		out = append(out, chunk{
			Text:   strings.Join(words[start:end], " "),
			Tokens: end - start,
		})
	}
	return out
}
