// Package llm provides chat completion and embedding clients for the
// OpenAI, Anthropic and Gemini APIs behind a provider-neutral interface.
package llm

import (
	"context"
	"fmt"
)

// Role of a message in a chat request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat request.
type Message struct {
	Role    Role
	Content string
}

// Request is a single chat completion request.
// System messages may appear anywhere; providers that take a separate
// system instruction receive them concatenated in order.
type Request struct {
	Model       string
	Temperature float64
	Messages    []Message
}

// Client completes chat requests. Implementations return the text of the
// first choice and a classified *Error on failure.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)

	// Provider returns the provider name, e.g. "openai".
	Provider() string
}

// Embedder converts texts to dense vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model names the vector space: the model plus any requested output
	// dimensionality. Vectors from different spaces must not be mixed in
	// one index or cache.
	Model() string
}

// embeddingScope is the Model value for a model truncated to dims.
// Zero dims keeps the model's native size and the bare name.
func embeddingScope(model string, dims int) string {
	if dims <= 0 {
		return model
	}
	return fmt.Sprintf("%s@%d", model, dims)
}

// Ensure implementations satisfy the interfaces at compile time.
var (
	_ Client   = (*OpenAIClient)(nil)
	_ Client   = (*AnthropicClient)(nil)
	_ Client   = (*GeminiClient)(nil)
	_ Client   = (*ResilientClient)(nil)
	_ Embedder = (*OpenAIEmbedder)(nil)
	_ Embedder = (*GeminiEmbedder)(nil)
	_ Embedder = (*CachingEmbedder)(nil)
)

// splitSystem separates system messages from conversation turns.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
