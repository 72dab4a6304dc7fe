package llm

import (
	"context"
	"sync"
)

// MockClient is a configurable mock for testing chat completion.
// Set CompleteFunc to control behavior in tests.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns an empty string and nil error.
	CompleteFunc func(ctx context.Context, req *Request) (string, error)

	// ProviderName is returned by Provider. Defaults to "mock".
	ProviderName string

	mu       sync.Mutex
	requests []*Request
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{ProviderName: "mock"}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req *Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// Provider implements Client.
func (m *MockClient) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// CompleteCalls returns the number of Complete invocations.
func (m *MockClient) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the requests received so far, in call order.
func (m *MockClient) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Request(nil), m.requests...)
}

// Reset clears call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

var _ Client = (*MockClient)(nil)

// MockEmbedder is a configurable mock for testing embeddings.
type MockEmbedder struct {
	// EmbedFunc is called when Embed is invoked.
	// If nil, each text maps to a deterministic vector from HashVector.
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName is returned by Model. Defaults to "mock-embedding".
	ModelName string

	mu         sync.Mutex
	EmbedCalls int
	EmbedTexts int
}

// NewMockEmbedder creates a new mock embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{ModelName: "mock-embedding"}
}

// Embed implements Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.EmbedCalls++
	m.EmbedTexts += len(texts)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = HashVector(t, 8)
	}
	return out, nil
}

// Model implements Embedder.
func (m *MockEmbedder) Model() string {
	if m.ModelName == "" {
		return "mock-embedding"
	}
	return m.ModelName
}

// HashVector returns a deterministic non-zero vector derived from text (FNV-1a).
// Equal texts map to equal vectors, which is enough for retrieval tests.
func HashVector(text string, dims int) []float32 {
	vec := make([]float32, dims)
	var h uint32 = 2166136261
	for i := 0; i < len(text); i++ {
		h ^= uint32(text[i])
		h *= 16777619
		vec[i%dims] += float32(h%1000) / 1000
	}
	vec[0] += 1
	return vec
}

var _ Embedder = (*MockEmbedder)(nil)
