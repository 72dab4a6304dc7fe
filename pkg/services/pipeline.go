package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/dataset"
	"github.com/malexternalsc/great-expectation-LLM/pkg/ledger"
)

// PipelineResult collects the results of each stage of a full run. A stage
// that did not run leaves its field nil.
type PipelineResult struct {
	Prompts      *RunSummary
	Expectations *DatasetResult
	Reasoning    *DatasetResult
}

// Pipeline chains prompt synthesis, expectation generation and reasoning
// reformatting. The expectation stage reads today's ledger, so prompts from
// earlier runs on the same day are converted again.
type Pipeline struct {
	prompts      *PromptGenerationRun
	ledger       *ledger.Ledger
	expectations ExpectationGenerator
	reasoning    ReasoningReformatter
	logger       *zap.Logger
}

func NewPipeline(
	prompts *PromptGenerationRun,
	ldg *ledger.Ledger,
	expectations ExpectationGenerator,
	reasoning ReasoningReformatter,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		prompts:      prompts,
		ledger:       ldg,
		expectations: expectations,
		reasoning:    reasoning,
		logger:       logger.Named("pipeline"),
	}
}

func (p *Pipeline) Run(ctx context.Context) (*PipelineResult, error) {
	result := &PipelineResult{}

	summary, err := p.prompts.Run(ctx)
	result.Prompts = summary
	if err != nil {
		return result, fmt.Errorf("prompt generation: %w", err)
	}

	userPrompts, err := p.ledger.Prompts()
	if err != nil {
		return result, fmt.Errorf("read ledger: %w", err)
	}
	if len(userPrompts) == 0 {
		p.logger.Warn("Ledger is empty, nothing to convert", zap.String("path", p.ledger.Path()))
		return result, nil
	}

	expectations, err := p.expectations.Run(ctx, userPrompts)
	result.Expectations = expectations
	if err != nil {
		return result, err
	}
	if expectations.Tally.Succeeded == 0 {
		p.logger.Warn("No expectations generated, skipping reasoning")
		return result, nil
	}

	rows, err := p.expectationRows(expectations)
	if err != nil {
		return result, err
	}

	reasoning, err := p.reasoning.Run(ctx, rows)
	result.Reasoning = reasoning
	if err != nil {
		return result, err
	}

	p.logger.Info("Pipeline complete",
		zap.String("expectations", expectations.Path),
		zap.String("reasoning", reasoning.Path))
	return result, nil
}

// expectationRows reads the written dataset back so the reasoning stage sees
// exactly what was persisted.
func (p *Pipeline) expectationRows(expectations *DatasetResult) ([]dataset.ExpectationRow, error) {
	rows, err := dataset.ReadExpectations(expectations.Path)
	if err != nil {
		return nil, fmt.Errorf("read expectation dataset: %w", err)
	}
	return rows, nil
}
