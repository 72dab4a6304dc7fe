package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds configuration for creating a chat client or embedder.
type Config struct {
	Provider  string // "openai", "anthropic", "gemini"
	Model     string
	APIKey    string // Optional for self-hosted OpenAI-compatible endpoints
	BaseURL   string // Optional OpenAI-compatible endpoint
	MaxTokens int    // Response cap; required by Anthropic

	// Dimensions truncates embedding vectors when the model supports it. Zero keeps the model default.
	Dimensions int
}

// OpenAIClient completes chat requests against OpenAI or an OpenAI-compatible endpoint.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

func newOpenAIAPI(cfg *Config) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return openai.NewClientWithConfig(clientConfig)
}

// NewOpenAIClient creates a chat client for OpenAI.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &OpenAIClient{
		client:    newOpenAIAPI(cfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("openai"),
	}, nil
}

// Provider implements Client.
func (c *OpenAIClient) Provider() string {
	return "openai"
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	c.logger.Debug("Chat request",
		zap.String("model", model),
		zap.Int("messages", len(messages)),
		zap.Float64("temperature", req.Temperature))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               model,
		Messages:            messages,
		Temperature:         float32(req.Temperature),
		MaxCompletionTokens: c.maxTokens,
	})
	if err != nil {
		c.logger.Debug("Chat request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyFor(c.Provider(), model, err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Type: ErrorTypeEmpty, Message: "no choices in response", Provider: c.Provider(), Model: model}
	}

	c.logger.Debug("Chat request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// OpenAIEmbedder produces embeddings with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewOpenAIEmbedder creates an embedder. An empty model defaults to text-embedding-3-large.
func NewOpenAIEmbedder(cfg *Config, logger *zap.Logger) *OpenAIEmbedder {
	model := cfg.Model
	if model == "" {
		model = string(openai.LargeEmbedding3)
	}
	return &OpenAIEmbedder{
		client:     newOpenAIAPI(cfg),
		model:      model,
		dimensions: cfg.Dimensions,
		logger:     logger.Named("openai-embed"),
	}
}

// Model implements Embedder. Truncated vectors are reported as "model@dims".
func (e *OpenAIEmbedder) Model() string {
	return embeddingScope(e.model, e.dimensions)
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(e.model),
		Input:      texts,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, classifyFor("openai", e.model, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &Error{
			Type:     ErrorTypeEmpty,
			Message:  fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
			Provider: "openai",
			Model:    e.model,
		}
	}

	// The API reports each vector's input index; do not rely on response order.
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}

	e.logger.Debug("Embedded batch", zap.Int("count", len(texts)))
	return embeddings, nil
}
