package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/dataset"
	"github.com/malexternalsc/great-expectation-LLM/pkg/llm"
	"github.com/malexternalsc/great-expectation-LLM/pkg/prompts"
)

func newTestReformatter(client llm.Client, dir string) *reasoningReformatter {
	r := NewReasoningReformatter(
		client,
		prompts.DefaultExemplars().Reasoning,
		llm.NewWorkerPool(llm.DefaultWorkerPoolConfig(), zap.NewNop()),
		GenerationConfig{Model: "gpt-4o-mini", Temperature: 0.7, DatasetDir: dir},
		zap.NewNop(),
	).(*reasoningReformatter)
	r.now = func() time.Time { return fixedDay }
	return r
}

func strPtr(s string) *string { return &s }

func TestReasoningReformatter_Reformat(t *testing.T) {
	client := llm.NewMockClient()
	reply := "1. The prompt asks for unique emails.\n#### expect_column_values_to_be_unique(column='email')"
	client.CompleteFunc = func(ctx context.Context, req *llm.Request) (string, error) {
		return reply, nil
	}
	r := newTestReformatter(client, t.TempDir())

	got, err := r.Reformat(context.Background(), "Emails must be unique", "expect_column_values_to_be_unique(column='email')")

	require.NoError(t, err)
	assert.Equal(t, reply, got, "response is stored verbatim")

	req := client.Requests()[0]
	require.Len(t, req.Messages, 2)
	body := req.Messages[1].Content
	assert.Equal(t, 3, strings.Count(body, "### Example "))
	assert.True(t, strings.HasSuffix(body, "### New Question:\nQuestion: Emails must be unique\n"+
		"Expected Answer: expect_column_values_to_be_unique(column='email')\n\nanswer:\n"))
}

func TestReasoningReformatter_RunSkipsNullAndFailedRows(t *testing.T) {
	client := llm.NewMockClient()
	client.CompleteFunc = func(ctx context.Context, req *llm.Request) (string, error) {
		if strings.Contains(req.Messages[1].Content, "Question: broken") {
			return "", errors.New("HTTP 502")
		}
		return "1. step\n#### expr", nil
	}
	r := newTestReformatter(client, t.TempDir())

	result, err := r.Run(context.Background(), []dataset.ExpectationRow{
		{UserPrompt: "ok", GeneratedExpectations: strPtr("expr")},
		{UserPrompt: "missing"},
		{UserPrompt: "broken", GeneratedExpectations: strPtr("expr")},
		{UserPrompt: "blank", GeneratedExpectations: strPtr("  ")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, Tally{Succeeded: 1, Skipped: 2, Failed: 1}, result.Tally)
	assert.Equal(t, "no generated expectation", result.Outcomes[1].Reason)
	assert.Equal(t, 2, client.CompleteCalls())
	assert.True(t, strings.HasSuffix(result.Path, "reasoning_dataset_20240309_100000.csv"))

	rows, err := dataset.ReadReasoning(result.Path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, dataset.ReasoningRow{UserPrompt: "ok", GeneratedExpectations: "expr", Reasoning: "1. step\n#### expr"}, rows[0])
}
