package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/combinator"
)

// scriptedSynthesizer returns outcomes chosen per combination.
type scriptedSynthesizer struct {
	seen   []string
	script func(combo combinator.Combination) CombinationOutcome
}

func (s *scriptedSynthesizer) Synthesize(ctx context.Context, combo combinator.Combination) CombinationOutcome {
	s.seen = append(s.seen, combo.String())
	if s.script != nil {
		return s.script(combo)
	}
	return CombinationOutcome{Combination: combo, Outcome: succeeded(combo.String()), Prompts: 2}
}

func TestPromptGenerationRun_EnumeratesEveryCombination(t *testing.T) {
	synth := &scriptedSynthesizer{}
	run := NewPromptGenerationRun(xyzCatalog(), synth, PromptGenerationConfig{}, zap.NewNop())

	summary, err := run.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"(X, Y)", "(X, Z)", "(Y, Z)", "(X, Y, Z)"}, synth.seen)
	assert.Equal(t, 4, summary.Combinations)
	assert.Equal(t, Tally{Succeeded: 4}, summary.Tally)
	assert.Equal(t, 8, summary.Prompts)
	assert.Len(t, summary.Outcomes, 4)
}

func TestPromptGenerationRun_SingleSizeThreeCombination(t *testing.T) {
	synth := &scriptedSynthesizer{}
	run := NewPromptGenerationRun(xyzCatalog(), synth, PromptGenerationConfig{MinSize: 3, MaxSize: 5}, zap.NewNop())

	summary, err := run.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"(X, Y, Z)"}, synth.seen)
	assert.Equal(t, 1, summary.Combinations)
}

func TestPromptGenerationRun_ContinuesAfterFailuresAndPanics(t *testing.T) {
	synth := &scriptedSynthesizer{script: func(combo combinator.Combination) CombinationOutcome {
		switch combo.String() {
		case "(X, Y)":
			panic("nil map")
		case "(X, Z)":
			return CombinationOutcome{Combination: combo, Outcome: failed(combo.String(), "prompt generation failed", assert.AnError)}
		case "(Y, Z)":
			return CombinationOutcome{Combination: combo, Outcome: skipped(combo.String(), "no numbered prompts in response")}
		}
		return CombinationOutcome{Combination: combo, Outcome: succeeded(combo.String()), Prompts: 25}
	}}
	run := NewPromptGenerationRun(xyzCatalog(), synth, PromptGenerationConfig{}, zap.NewNop())

	summary, err := run.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, synth.seen, 4)
	assert.Equal(t, Tally{Succeeded: 1, Skipped: 1, Failed: 2}, summary.Tally)
	assert.Equal(t, 25, summary.Prompts)

	panicked := summary.Outcomes[0]
	assert.Equal(t, OutcomeFailed, panicked.Status)
	assert.Equal(t, combinator.Combination{"X", "Y"}, panicked.Combination)
	assert.ErrorContains(t, panicked.Err, "nil map")
}

func TestPromptGenerationRun_Limit(t *testing.T) {
	synth := &scriptedSynthesizer{}
	run := NewPromptGenerationRun(xyzCatalog(), synth, PromptGenerationConfig{Limit: 2}, zap.NewNop())

	summary, err := run.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"(X, Y)", "(X, Z)"}, synth.seen)
	assert.Equal(t, 2, summary.Combinations)
}

func TestPromptGenerationRun_CancelDuringThrottle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	synth := &scriptedSynthesizer{script: func(combo combinator.Combination) CombinationOutcome {
		cancel()
		return CombinationOutcome{Combination: combo, Outcome: succeeded(combo.String())}
	}}
	run := NewPromptGenerationRun(xyzCatalog(), synth, PromptGenerationConfig{Throttle: time.Hour}, zap.NewNop())

	summary, err := run.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Combinations)
	assert.Len(t, synth.seen, 1)
}

func TestPromptGenerationRun_ThrottlesBetweenCombinations(t *testing.T) {
	synth := &scriptedSynthesizer{}
	run := NewPromptGenerationRun(xyzCatalog(), synth, PromptGenerationConfig{Throttle: 10 * time.Millisecond}, zap.NewNop())

	summary, err := run.Run(context.Background())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Duration, 30*time.Millisecond)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "combination", plural("combination", 1))
	assert.Equal(t, "combinations", plural("combination", 0))
	assert.Equal(t, "prompts", plural("prompt", 25))
}
