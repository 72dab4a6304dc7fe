package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_SelectsProvider(t *testing.T) {
	ctx := context.Background()

	client, err := NewClient(ctx, &Config{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Provider())

	client, err = NewClient(ctx, &Config{Provider: "anthropic", Model: "claude-sonnet-4-5", APIKey: "sk-ant-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", client.Provider())

	client, err = NewClient(ctx, &Config{Provider: "gemini", Model: "gemini-2.5-flash", APIKey: "g-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gemini", client.Provider())
}

func TestNewClient_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, &Config{Provider: "ollama", Model: "llama3"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")

	_, err = NewClient(ctx, &Config{Provider: "openai"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")

	_, err = NewClient(ctx, &Config{Provider: "anthropic", Model: "claude-sonnet-4-5"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewEmbedder_SelectsProvider(t *testing.T) {
	ctx := context.Background()

	embedder, err := NewEmbedder(ctx, &Config{Provider: "openai", APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", embedder.Model())

	embedder, err = NewEmbedder(ctx, &Config{Provider: "gemini", APIKey: "g-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gemini-embedding-001", embedder.Model())

	_, err = NewEmbedder(ctx, &Config{Provider: "anthropic", APIKey: "sk-ant-test"}, zap.NewNop())
	require.Error(t, err)
}

func TestNewEmbedder_ModelIncludesDimensions(t *testing.T) {
	ctx := context.Background()

	embedder, err := NewEmbedder(ctx, &Config{Provider: "openai", APIKey: "sk-test", Dimensions: 256}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large@256", embedder.Model())

	embedder, err = NewEmbedder(ctx, &Config{Provider: "gemini", APIKey: "g-test", Dimensions: 768}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gemini-embedding-001@768", embedder.Model())
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "Use only accepted expectations."},
		{Role: RoleUser, Content: "Q1"},
		{Role: RoleAssistant, Content: "A1"},
		{Role: RoleSystem, Content: "Answer with one expression."},
		{Role: RoleUser, Content: "Q2"},
	})

	assert.Equal(t, "Use only accepted expectations.\n\nAnswer with one expression.", system)
	require.Len(t, turns, 3)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "Q2", turns[2].Content)
}
