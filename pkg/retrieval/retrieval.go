// Package retrieval selects grounding examples for a generation request from
// the embedding index.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/vectorstore"
)

// BuildConstraintsSection renders one "- **name**: definition" line per
// constraint, in the given order. It is both the similarity query and the
// constraint block of the generation request.
func BuildConstraintsSection(names, definitions []string) string {
	var section strings.Builder
	for i, name := range names {
		def := ""
		if i < len(definitions) {
			def = definitions[i]
		}
		section.WriteString(fmt.Sprintf("- **%s**: %s\n", name, def))
	}
	return section.String()
}

// Retriever returns the stored examples nearest to a query. Missing examples
// only reduce the context of a request, so retrieval never fails.
type Retriever struct {
	index  vectorstore.Index
	logger *zap.Logger
}

// NewRetriever creates a retriever over index. A nil index always yields no examples.
func NewRetriever(index vectorstore.Index, logger *zap.Logger) *Retriever {
	return &Retriever{
		index:  index,
		logger: logger.Named("retriever"),
	}
}

// Examples returns up to k stored texts, nearest first. It returns an empty
// slice when k is not positive, the index is empty, or the search fails.
func (r *Retriever) Examples(ctx context.Context, query string, k int) []string {
	if k <= 0 || r.index == nil {
		return []string{}
	}

	results, err := r.index.Query(ctx, query, k)
	if err != nil {
		r.logger.Warn("Similarity search failed; continuing without examples",
			zap.Int("k", k),
			zap.String("query", logging.Snippet(query)),
			zap.String("error", logging.SanitizeError(err)))
		return []string{}
	}
	if results == nil {
		return []string{}
	}
	if len(results) > k {
		results = results[:k]
	}

	r.logger.Debug("Retrieved examples", zap.Int("requested", k), zap.Int("found", len(results)))
	return results
}
