package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiEmbeddingModel = "gemini-embedding-001"

func newGenAIClient(ctx context.Context, cfg *Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// GeminiClient completes chat requests with the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewGeminiClient creates a chat client for Gemini.
func NewGeminiClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	client, err := newGenAIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("gemini"),
	}, nil
}

// Provider implements Client.
func (c *GeminiClient) Provider() string {
	return "gemini"
}

// Complete implements Client. Assistant turns map to the "model" role and
// system messages to the system instruction.
func (c *GeminiClient) Complete(ctx context.Context, req *Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	system, turns := splitSystem(req.Messages)
	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = int32(c.maxTokens)
	}

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		c.logger.Debug("GenerateContent failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyFor(c.Provider(), model, err)
	}

	text := result.Text()
	if text == "" {
		return "", &Error{Type: ErrorTypeEmpty, Message: "gemini returned an empty response", Provider: c.Provider(), Model: model}
	}

	c.logger.Debug("GenerateContent completed",
		zap.Int("response_len", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// GeminiEmbedder produces embeddings with the Gemini embedding API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewGeminiEmbedder creates an embedder. An empty model defaults to gemini-embedding-001.
func NewGeminiEmbedder(ctx context.Context, cfg *Config, logger *zap.Logger) (*GeminiEmbedder, error) {
	client, err := newGenAIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}
	return &GeminiEmbedder{
		client:     client,
		model:      model,
		dimensions: cfg.Dimensions,
		logger:     logger.Named("gemini-embed"),
	}, nil
}

// Model implements Embedder.
func (e *GeminiEmbedder) Model() string {
	return embeddingScope(e.model, e.dimensions)
}

// Embed implements Embedder. Stored examples and queries are compared
// symmetrically, so every text uses the semantic similarity task type.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	config := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if e.dimensions > 0 {
		config.OutputDimensionality = genai.Ptr(int32(e.dimensions))
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, classifyFor("gemini", e.model, err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, &Error{
			Type:     ErrorTypeEmpty,
			Message:  fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(result.Embeddings)),
			Provider: "gemini",
			Model:    e.model,
		}
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}

	e.logger.Debug("Embedded batch", zap.Int("count", len(texts)))
	return embeddings, nil
}
