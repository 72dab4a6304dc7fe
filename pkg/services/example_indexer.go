package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/vectorstore"
)

// ExampleIndexer loads example prompt files into the embedding index.
type ExampleIndexer struct {
	index  vectorstore.Index
	logger *zap.Logger
}

func NewExampleIndexer(index vectorstore.Index, logger *zap.Logger) *ExampleIndexer {
	return &ExampleIndexer{index: index, logger: logger.Named("example-indexer")}
}

// IndexFile inserts every non-blank line of path, tagged with path, and
// returns the number of texts inserted. Loading a file twice stores its
// lines twice.
func (x *ExampleIndexer) IndexFile(ctx context.Context, path string) (int, error) {
	texts, err := catalog.LoadPrompts(path)
	if err != nil {
		return 0, err
	}
	if len(texts) == 0 {
		x.logger.Warn("Prompt file has no lines to index", zap.String("path", path))
		return 0, nil
	}

	if err := x.index.Insert(ctx, texts, path); err != nil {
		return 0, fmt.Errorf("index %s: %w", path, err)
	}

	x.logger.Info("Indexed example prompts", zap.String("path", path), zap.Int("count", len(texts)))
	return len(texts), nil
}

// Search returns the k stored examples nearest to query.
func (x *ExampleIndexer) Search(ctx context.Context, query string, k int) ([]vectorstore.Match, error) {
	matches, err := x.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search examples: %w", err)
	}
	return matches, nil
}
