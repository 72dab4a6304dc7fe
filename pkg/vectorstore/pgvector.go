package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/database"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
)

// PGVectorIndex stores examples in the example_embeddings table and ranks
// them with pgvector's cosine distance operator. Every statement is scoped
// to the configured collection and the embedder's Model, which carries any
// requested dimensionality, so vectors of different sizes are never compared.
type PGVectorIndex struct {
	db       *database.DB
	embedder llm.Embedder
	opts     Options
	logger   *zap.Logger
}

var _ Index = (*PGVectorIndex)(nil)

// NewPGVectorIndex creates an index over an already-migrated database.
func NewPGVectorIndex(db *database.DB, embedder llm.Embedder, opts Options, logger *zap.Logger) *PGVectorIndex {
	return &PGVectorIndex{
		db:       db,
		embedder: embedder,
		opts:     opts,
		logger:   logger.Named("pgvector"),
	}
}

func (p *PGVectorIndex) Insert(ctx context.Context, texts []string, sourceTag string) error {
	query := `
		INSERT INTO example_embeddings (
			id, collection, model, content, source, embedding, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	inserted := 0
	err := embedBatches(ctx, p.embedder, texts, p.opts.batchSize(), func(batch []string, vectors [][]float32) error {
		now := time.Now()
		b := &pgx.Batch{}
		for i, text := range batch {
			b.Queue(query,
				uuid.New(), p.opts.Collection, p.embedder.Model(),
				text, sourceTag, pgvector.NewVector(vectors[i]), now,
			)
		}

		br := p.db.SendBatch(ctx, b)
		defer br.Close()

		for range batch {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("batch insert example: %w", err)
			}
		}
		inserted += len(batch)
		return nil
	})
	if err != nil {
		return err
	}

	p.logger.Info("Inserted examples",
		zap.Int("count", inserted),
		zap.String("collection", p.opts.Collection),
		zap.String("source", sourceTag))
	return nil
}

func (p *PGVectorIndex) Query(ctx context.Context, text string, k int) ([]string, error) {
	matches, err := p.Search(ctx, text, k)
	if err != nil {
		return nil, err
	}
	return contents(matches), nil
}

func (p *PGVectorIndex) Search(ctx context.Context, text string, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	// Skip the embedding call entirely for an empty collection.
	n, err := p.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []Match{}, nil
	}

	vec, err := embedQuery(ctx, p.embedder, text)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT content, source, embedding <=> $1 AS distance
		FROM example_embeddings
		WHERE collection = $2 AND model = $3
		ORDER BY distance, created_at, id
		LIMIT $4`

	rows, err := p.db.Query(ctx, query, pgvector.NewVector(vec), p.opts.Collection, p.embedder.Model(), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search examples: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, k)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Content, &m.Source, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan example: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating examples: %w", err)
	}

	return matches, nil
}

func (p *PGVectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM example_embeddings WHERE collection = $1 AND model = $2`,
		p.opts.Collection, p.embedder.Model(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count examples: %w", err)
	}
	return n, nil
}

// Records lists the stored records of the collection, oldest first.
func (p *PGVectorIndex) Records(ctx context.Context) ([]Record, error) {
	query := `
		SELECT id, collection, model, content, source, embedding, created_at
		FROM example_embeddings
		WHERE collection = $1 AND model = $2
		ORDER BY created_at, id`

	rows, err := p.db.Query(ctx, query, p.opts.Collection, p.embedder.Model())
	if err != nil {
		return nil, fmt.Errorf("failed to list examples: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		var embedding pgvector.Vector
		if err := rows.Scan(&r.ID, &r.Collection, &r.Model, &r.Content, &r.Source, &embedding, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan example: %w", err)
		}
		r.Embedding = embedding.Slice()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating examples: %w", err)
	}

	return records, nil
}
