// Package vectorstore persists example texts as embeddings and answers
// nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
)

// DefaultBatchSize is the number of texts sent to the embedder per call.
const DefaultBatchSize = 100

// Index stores texts with their embeddings and returns the stored texts most
// similar to a query. Inserting the same text twice stores it twice.
type Index interface {
	Insert(ctx context.Context, texts []string, sourceTag string) error
	Query(ctx context.Context, text string, k int) ([]string, error)
	Search(ctx context.Context, text string, k int) ([]Match, error)
	Count(ctx context.Context) (int, error)
}

// Record is one stored example. Records are never updated or deleted.
type Record struct {
	ID         uuid.UUID
	Collection string
	Model      string
	Content    string
	Source     string
	Embedding  []float32
	CreatedAt  time.Time
}

// Match is a search hit; lower Distance is nearer.
type Match struct {
	Content  string
	Source   string
	Distance float64
}

// Options configures an index.
type Options struct {
	Collection string
	BatchSize  int
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

func contents(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Content
	}
	return out
}

// embedBatches embeds texts in fixed-size batches and calls store for each batch.
func embedBatches(ctx context.Context, embedder llm.Embedder, texts []string, size int, store func(batch []string, vectors [][]float32) error) error {
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch := texts[start:end]

		vectors, err := embedder.Embed(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}
		if err := store(batch, vectors); err != nil {
			return err
		}
	}
	return nil
}

func embedQuery(ctx context.Context, embedder llm.Embedder, text string) ([]float32, error) {
	vectors, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	return vectors[0], nil
}
