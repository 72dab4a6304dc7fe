package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/dataset"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
	"github.com/malexternalsc/great-expectation-LLM/pkg/prompts"
)

func testVocabulary() catalog.Vocabulary {
	return catalog.GroupExpectations([]catalog.ExpectationRow{
		{Category: "Uniqueness", Expectation: "expect_column_values_to_be_unique"},
		{Expectation: "expect_compound_columns_to_be_unique"},
		{Category: "Range", Expectation: "expect_column_values_to_be_between"},
	})
}

func newTestExpectationGenerator(client llm.Client, dir string, batchSize, concurrency int) *expectationGenerator {
	g := NewExpectationGenerator(
		client,
		testVocabulary(),
		prompts.DefaultExemplars().Expectation,
		llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: concurrency}, zap.NewNop()),
		GenerationConfig{Model: "gpt-4o-mini", Temperature: 0.7, BatchSize: batchSize, DatasetDir: dir},
		zap.NewNop(),
	).(*expectationGenerator)
	g.now = func() time.Time { return fixedDay }
	return g
}

func lastUserMessage(req *llm.Request) string {
	return req.Messages[len(req.Messages)-1].Content
}

func TestExpectationGenerator_Generate(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteFunc = func(ctx context.Context, req *llm.Request) (string, error) {
		return "  expect_column_values_to_be_unique(column='email')\n", nil
	}
	g := newTestExpectationGenerator(client, t.TempDir(), 0, 1)

	expr, err := g.Generate(context.Background(), "Emails must be unique")

	require.NoError(t, err)
	assert.Equal(t, "expect_column_values_to_be_unique(column='email')", expr)

	req := client.Requests()[0]
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Uniqueness: expect_column_values_to_be_unique, expect_compound_columns_to_be_unique")
	assert.Equal(t, llm.RoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "Emails must be unique", lastUserMessage(req))
}

func TestExpectationGenerator_EmptyResponse(t *testing.T) {
	client := llm.NewMockClient()
	g := newTestExpectationGenerator(client, t.TempDir(), 0, 1)

	_, err := g.Generate(context.Background(), "Totals must be positive")

	assert.ErrorIs(t, err, apperrors.ErrEmptyResponse)
}

func TestExpectationGenerator_RunKeepsOrderAndNullsFailures(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteFunc = func(ctx context.Context, req *llm.Request) (string, error) {
		p := lastUserMessage(req)
		if p == "p2" {
			return "", errors.New("HTTP 500")
		}
		return "expr(" + p + ")", nil
	}
	dir := t.TempDir()
	g := newTestExpectationGenerator(client, dir, 2, 3)

	result, err := g.Run(context.Background(), []string{"p1", "p2", "p3", "p4", "p5"})

	require.NoError(t, err)
	assert.Equal(t, 5, result.Rows)
	assert.Equal(t, Tally{Succeeded: 4, Failed: 1}, result.Tally)
	assert.Equal(t, OutcomeFailed, result.Outcomes[1].Status)
	assert.True(t, strings.HasSuffix(result.Path, "generated_expectations_20240309_100000.csv"))

	rows, err := dataset.ReadExpectations(result.Path)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("p%d", i+1), row.UserPrompt)
		if i == 1 {
			assert.Nil(t, row.GeneratedExpectations)
			continue
		}
		require.NotNil(t, row.GeneratedExpectations)
		assert.Equal(t, fmt.Sprintf("expr(p%d)", i+1), *row.GeneratedExpectations)
	}
}

func TestExpectationGenerator_TagsCallsWithStage(t *testing.T) {
	client := llm.NewMockClient()
	var stages []any
	client.CompleteFunc = func(ctx context.Context, req *llm.Request) (string, error) {
		stages = append(stages, llm.GetContext(ctx)["stage"])
		return "expr", nil
	}
	g := newTestExpectationGenerator(client, t.TempDir(), 0, 1)

	rows, outcomes := g.GenerateAll(context.Background(), []string{"a", "b"})

	assert.Len(t, rows, 2)
	assert.Equal(t, "prompt-2", outcomes[1].Item)
	assert.Equal(t, []any{"expectations", "expectations"}, stages)
}

func TestExpectationGenerator_RunRefusesExistingDataset(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteFunc = func(ctx context.Context, req *llm.Request) (string, error) { return "expr", nil }
	dir := t.TempDir()
	g := newTestExpectationGenerator(client, dir, 0, 1)

	_, err := g.Run(context.Background(), []string{"a"})
	require.NoError(t, err)

	_, err = g.Run(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "already exists")
}
