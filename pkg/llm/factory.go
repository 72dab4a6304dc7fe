package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewClient creates the chat client for cfg.Provider.
func NewClient(ctx context.Context, cfg *Config, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	case "gemini":
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}

// NewEmbedder creates the embedder for cfg.Provider. Anthropic has no embeddings API.
func NewEmbedder(ctx context.Context, cfg *Config, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIEmbedder(cfg, logger), nil
	case "gemini":
		return NewGeminiEmbedder(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}
