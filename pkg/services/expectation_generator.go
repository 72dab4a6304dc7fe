package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/dataset"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/prompts"
)

// ExpectationGenerator converts requirement prompts to expectation expressions.
type ExpectationGenerator interface {
	// Generate converts one prompt.
	Generate(ctx context.Context, userPrompt string) (string, error)

	// GenerateAll converts prompts in input order. A failed prompt yields a
	// row with a nil expression and a failed outcome.
	GenerateAll(ctx context.Context, userPrompts []string) ([]dataset.ExpectationRow, []Outcome)

	// Run converts prompts and writes the expectation dataset.
	Run(ctx context.Context, userPrompts []string) (*DatasetResult, error)
}

// DatasetResult summarises a dataset-producing stage.
type DatasetResult struct {
	Path     string
	Rows     int
	Tally    Tally
	Outcomes []Outcome
}

// GenerationConfig is shared by the dataset stages.
type GenerationConfig struct {
	Model       string
	Temperature float64
	// BatchSize is the number of prompts per progress report.
	BatchSize  int
	DatasetDir string
}

func (c GenerationConfig) batchSize() int {
	if c.BatchSize <= 0 {
		return 100
	}
	return c.BatchSize
}

type expectationGenerator struct {
	client     llm.Client
	vocabulary catalog.Vocabulary
	examples   []prompts.ExpectationExample
	workerPool *llm.WorkerPool
	config     GenerationConfig
	now        func() time.Time
	logger     *zap.Logger
}

// NewExpectationGenerator creates a generator grounded on the accepted
// vocabulary and the few-shot examples.
func NewExpectationGenerator(
	client llm.Client,
	vocabulary catalog.Vocabulary,
	examples []prompts.ExpectationExample,
	workerPool *llm.WorkerPool,
	config GenerationConfig,
	logger *zap.Logger,
) ExpectationGenerator {
	return &expectationGenerator{
		client:     client,
		vocabulary: vocabulary,
		examples:   examples,
		workerPool: workerPool,
		config:     config,
		now:        time.Now,
		logger:     logger.Named("expectation-generator"),
	}
}

var _ ExpectationGenerator = (*expectationGenerator)(nil)

func (g *expectationGenerator) Generate(ctx context.Context, userPrompt string) (string, error) {
	text, err := g.client.Complete(ctx, &llm.Request{
		Model:       g.config.Model,
		Temperature: g.config.Temperature,
		Messages:    prompts.BuildExpectationMessages(g.vocabulary, g.examples, userPrompt),
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.ErrEmptyResponse
	}
	return text, nil
}

func (g *expectationGenerator) GenerateAll(ctx context.Context, userPrompts []string) ([]dataset.ExpectationRow, []Outcome) {
	rows := make([]dataset.ExpectationRow, len(userPrompts))
	outcomes := make([]Outcome, len(userPrompts))
	runID := uuid.New()
	size := g.config.batchSize()
	batches := (len(userPrompts) + size - 1) / size

	for start := 0; start < len(userPrompts); start += size {
		end := min(start+size, len(userPrompts))
		g.logger.Info(fmt.Sprintf("Processing batch %d of %d with %d prompts", start/size+1, batches, end-start))

		items := make([]llm.WorkItem[string], 0, end-start)
		for i := start; i < end; i++ {
			id := fmt.Sprintf("prompt-%d", i+1)
			p := userPrompts[i]
			items = append(items, llm.WorkItem[string]{
				ID: id,
				Execute: func(ctx context.Context) (string, error) {
					return g.Generate(llm.WithStage(ctx, runID, "expectations", id), p)
				},
			})
		}

		results := llm.Process(ctx, g.workerPool, items, nil)
		for j, r := range results {
			i := start + j
			rows[i].UserPrompt = userPrompts[i]
			if r.Err != nil {
				g.logger.Error("Error processing prompt",
					zap.String("prompt", logging.Snippet(userPrompts[i])),
					zap.String("error", logging.SanitizeError(r.Err)))
				outcomes[i] = failed(r.ID, "expectation generation failed", r.Err)
				continue
			}
			expr := r.Result
			rows[i].GeneratedExpectations = &expr
			outcomes[i] = succeeded(r.ID)
			g.logger.Debug("Processed prompt", zap.String("prompt", logging.Snippet(userPrompts[i])))
		}
	}

	return rows, outcomes
}

func (g *expectationGenerator) Run(ctx context.Context, userPrompts []string) (*DatasetResult, error) {
	rows, outcomes := g.GenerateAll(ctx, userPrompts)

	result := &DatasetResult{Rows: len(rows), Outcomes: outcomes}
	for _, o := range outcomes {
		result.Tally.add(o.Status)
	}

	path, err := dataset.WriteExpectations(g.config.DatasetDir, rows, g.now())
	if err != nil {
		return result, fmt.Errorf("write expectation dataset: %w", err)
	}
	result.Path = path

	g.logger.Info("Generated expectations saved",
		zap.String("path", path),
		zap.Int("rows", result.Rows),
		zap.Int("failed", result.Tally.Failed))
	return result, nil
}
