package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/combinator"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/retry"
)

// PromptGenerationConfig bounds the enumeration.
type PromptGenerationConfig struct {
	MinSize  int
	MaxSize  int
	Throttle time.Duration
	// Limit caps the number of combinations processed; 0 means all.
	Limit int
}

// RunSummary reports a prompt generation run.
type RunSummary struct {
	RunID        uuid.UUID
	Combinations int
	Prompts      int
	Tally        Tally
	Outcomes     []CombinationOutcome
	Duration     time.Duration
}

// PromptGenerationRun walks every category combination and synthesizes a
// prompt batch for each, one at a time.
type PromptGenerationRun struct {
	catalog     *catalog.Catalog
	synthesizer PromptSynthesizer
	config      PromptGenerationConfig
	logger      *zap.Logger
}

func NewPromptGenerationRun(cat *catalog.Catalog, synthesizer PromptSynthesizer, config PromptGenerationConfig, logger *zap.Logger) *PromptGenerationRun {
	if config.MinSize == 0 {
		config.MinSize = combinator.DefaultMinSize
	}
	if config.MaxSize == 0 {
		config.MaxSize = combinator.DefaultMaxSize
	}
	return &PromptGenerationRun{
		catalog:     cat,
		synthesizer: synthesizer,
		config:      config,
		logger:      logger.Named("prompt-run"),
	}
}

// Run processes combinations until the enumeration (or the limit) is
// exhausted. Per-combination failures are recorded in the summary; only
// cancellation of ctx ends the run early, in which case the partial summary
// is returned with ctx.Err().
func (r *PromptGenerationRun) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{RunID: uuid.New()}
	names := r.catalog.Names()

	total := combinator.Count(len(names), r.config.MinSize, r.config.MaxSize)
	if r.config.Limit > 0 && r.config.Limit < total {
		total = r.config.Limit
	}
	r.logger.Info(fmt.Sprintf("Generating prompts for %d %s", total, plural("combination", total)),
		zap.String("run_id", summary.RunID.String()),
		zap.Int("categories", len(names)))

	var runErr error
	for combo := range combinator.Combinations(names, r.config.MinSize, r.config.MaxSize) {
		if r.config.Limit > 0 && summary.Combinations >= r.config.Limit {
			break
		}
		if summary.Combinations > 0 {
			if err := retry.Wait(ctx, r.config.Throttle); err != nil {
				runErr = err
				break
			}
		} else if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		summary.Combinations++
		out := r.synthesize(llm.WithStage(ctx, summary.RunID, "prompts", combo.String()), combo)
		summary.Outcomes = append(summary.Outcomes, out)
		summary.Tally.add(out.Status)
		summary.Prompts += out.Prompts

		switch out.Status {
		case OutcomeFailed:
			r.logger.Error("Error processing combination",
				zap.String("combination", combo.String()),
				zap.String("reason", out.Reason),
				zap.String("error", logging.SanitizeError(out.Err)))
		case OutcomeSkipped:
			r.logger.Info("Skipped combination",
				zap.String("combination", combo.String()),
				zap.String("reason", out.Reason))
		default:
			r.logger.Info(fmt.Sprintf("Appended %d %s", out.Prompts, plural("prompt", out.Prompts)),
				zap.String("combination", combo.String()),
				zap.Int("progress", summary.Combinations),
				zap.Int("total", total))
		}
	}

	summary.Duration = time.Since(start)
	r.logger.Info(fmt.Sprintf("Processed %d %s", summary.Combinations, plural("combination", summary.Combinations)),
		zap.Int("succeeded", summary.Tally.Succeeded),
		zap.Int("skipped", summary.Tally.Skipped),
		zap.Int("failed", summary.Tally.Failed),
		zap.Int("prompts", summary.Prompts),
		zap.Duration("duration", summary.Duration))
	return summary, runErr
}

// synthesize isolates the loop from a panicking combination.
func (r *PromptGenerationRun) synthesize(ctx context.Context, combo combinator.Combination) (out CombinationOutcome) {
	defer func() {
		if p := recover(); p != nil {
			out = CombinationOutcome{
				Combination: combo,
				Outcome:     failed(combo.String(), "panic", fmt.Errorf("panic: %v", p)),
			}
		}
	}()
	return r.synthesizer.Synthesize(ctx, combo)
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return inflection.Plural(word)
}
