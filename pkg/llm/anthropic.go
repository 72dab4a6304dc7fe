package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient completes chat requests with the Anthropic Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewAnthropicClient creates a chat client for Anthropic.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger.Named("anthropic"),
	}, nil
}

// Provider implements Client.
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

// Complete implements Client. System messages become the request's system prompt.
func (c *AnthropicClient) Complete(ctx context.Context, req *Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	system, turns := splitSystem(req.Messages)
	messages := make([]anthropic.Message, 0, len(turns))
	for _, m := range turns {
		text := m.Content
		role := anthropic.RoleUser
		if m.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{{Type: "text", Text: &text}},
		})
	}

	temperature := float32(req.Temperature)
	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		System:      system,
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
		Messages:    messages,
	})
	if err != nil {
		c.logger.Debug("Messages request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyFor(c.Provider(), model, err)
	}

	text := extractTextFromResponse(resp)
	if text == "" {
		return "", &Error{Type: ErrorTypeEmpty, Message: "no text block in response", Provider: c.Provider(), Model: model}
	}

	c.logger.Debug("Messages request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

func extractTextFromResponse(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
