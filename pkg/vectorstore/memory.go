package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
)

// MemoryIndex keeps records in process and ranks them by exact cosine distance.
// It backs tests and dry runs that have no database.
type MemoryIndex struct {
	embedder llm.Embedder
	opts     Options
	logger   *zap.Logger

	mu      sync.RWMutex
	records []Record
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty in-process index.
func NewMemoryIndex(embedder llm.Embedder, opts Options, logger *zap.Logger) *MemoryIndex {
	return &MemoryIndex{
		embedder: embedder,
		opts:     opts,
		logger:   logger.Named("memory-index"),
	}
}

func (m *MemoryIndex) Insert(ctx context.Context, texts []string, sourceTag string) error {
	return embedBatches(ctx, m.embedder, texts, m.opts.batchSize(), func(batch []string, vectors [][]float32) error {
		now := time.Now()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, text := range batch {
			m.records = append(m.records, Record{
				ID:         uuid.New(),
				Collection: m.opts.Collection,
				Model:      m.embedder.Model(),
				Content:    text,
				Source:     sourceTag,
				Embedding:  vectors[i],
				CreatedAt:  now,
			})
		}
		m.logger.Debug("Inserted examples", zap.Int("count", len(batch)), zap.String("source", sourceTag))
		return nil
	})
}

func (m *MemoryIndex) Query(ctx context.Context, text string, k int) ([]string, error) {
	matches, err := m.Search(ctx, text, k)
	if err != nil {
		return nil, err
	}
	return contents(matches), nil
}

func (m *MemoryIndex) Search(ctx context.Context, text string, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	m.mu.RLock()
	empty := len(m.records) == 0
	m.mu.RUnlock()
	if empty {
		return []Match{}, nil
	}

	query, err := embedQuery(ctx, m.embedder, text)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.records))
	for _, r := range m.records {
		d, err := cosineDistance(query, r.Embedding)
		if err != nil {
			return nil, fmt.Errorf("compare with record %s: %w", r.ID, err)
		}
		matches = append(matches, Match{Content: r.Content, Source: r.Source, Distance: d})
	}

	// Stable so equal distances keep insertion order.
	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Records returns a copy of the stored records.
func (m *MemoryIndex) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records)
}
