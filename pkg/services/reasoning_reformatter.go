package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
	"github.com/malexternalsc/great-expectation-LLM/pkg/dataset"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/prompts"
)

// ReasoningReformatter attaches step-by-step reasoning to generated
// expectation rows.
type ReasoningReformatter interface {
	// Reformat returns the model's reasoning for one pair, verbatim.
	Reformat(ctx context.Context, userPrompt, expression string) (string, error)

	// Run reformats rows with an expression and writes the reasoning dataset.
	// Rows without an expression and rows whose call fails are left out.
	Run(ctx context.Context, rows []dataset.ExpectationRow) (*DatasetResult, error)
}

type reasoningReformatter struct {
	client     llm.Client
	examples   []prompts.ReasoningExample
	workerPool *llm.WorkerPool
	config     GenerationConfig
	now        func() time.Time
	logger     *zap.Logger
}

// NewReasoningReformatter creates a reformatter.
func NewReasoningReformatter(
	client llm.Client,
	examples []prompts.ReasoningExample,
	workerPool *llm.WorkerPool,
	config GenerationConfig,
	logger *zap.Logger,
) ReasoningReformatter {
	return &reasoningReformatter{
		client:     client,
		examples:   examples,
		workerPool: workerPool,
		config:     config,
		now:        time.Now,
		logger:     logger.Named("reasoning-reformatter"),
	}
}

var _ ReasoningReformatter = (*reasoningReformatter)(nil)

func (r *reasoningReformatter) Reformat(ctx context.Context, userPrompt, expression string) (string, error) {
	text, err := r.client.Complete(ctx, &llm.Request{
		Model:       r.config.Model,
		Temperature: r.config.Temperature,
		Messages:    prompts.BuildReasoningMessages(r.examples, userPrompt, expression),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.ErrEmptyResponse
	}
	return text, nil
}

func (r *reasoningReformatter) Run(ctx context.Context, rows []dataset.ExpectationRow) (*DatasetResult, error) {
	runID := uuid.New()
	result := &DatasetResult{Outcomes: make([]Outcome, len(rows))}

	// Indices of rows that carry an expression.
	pending := make([]int, 0, len(rows))
	for i, row := range rows {
		if row.GeneratedExpectations == nil || strings.TrimSpace(*row.GeneratedExpectations) == "" {
			result.Outcomes[i] = skipped(fmt.Sprintf("row-%d", i+1), "no generated expectation")
			continue
		}
		pending = append(pending, i)
	}

	var out []dataset.ReasoningRow
	size := r.config.batchSize()
	for start := 0; start < len(pending); start += size {
		end := min(start+size, len(pending))
		r.logger.Info(fmt.Sprintf("Processing batch %d with %d rows", start/size+1, end-start))

		items := make([]llm.WorkItem[string], 0, end-start)
		for _, i := range pending[start:end] {
			id := fmt.Sprintf("row-%d", i+1)
			row := rows[i]
			items = append(items, llm.WorkItem[string]{
				ID: id,
				Execute: func(ctx context.Context) (string, error) {
					return r.Reformat(llm.WithStage(ctx, runID, "reasoning", id), row.UserPrompt, *row.GeneratedExpectations)
				},
			})
		}

		results := llm.Process(ctx, r.workerPool, items, nil)
		for j, res := range results {
			i := pending[start+j]
			if res.Err != nil {
				r.logger.Error("Error reformatting row",
					zap.String("prompt", logging.Snippet(rows[i].UserPrompt)),
					zap.String("error", logging.SanitizeError(res.Err)))
				result.Outcomes[i] = failed(res.ID, "reasoning failed", res.Err)
				continue
			}
			out = append(out, dataset.ReasoningRow{
				UserPrompt:            rows[i].UserPrompt,
				GeneratedExpectations: *rows[i].GeneratedExpectations,
				Reasoning:             res.Result,
			})
			result.Outcomes[i] = succeeded(res.ID)
		}
	}

	for _, o := range result.Outcomes {
		result.Tally.add(o.Status)
	}
	result.Rows = len(out)

	path, err := dataset.WriteReasoning(r.config.DatasetDir, out, r.now())
	if err != nil {
		return result, fmt.Errorf("write reasoning dataset: %w", err)
	}
	result.Path = path

	r.logger.Info("Reasoning dataset saved",
		zap.String("path", path),
		zap.Int("rows", result.Rows),
		zap.Int("skipped", result.Tally.Skipped),
		zap.Int("failed", result.Tally.Failed))
	return result, nil
}
