package llm

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithStage_AddsRunAndStage(t *testing.T) {
	ctx := context.Background()
	runID := uuid.New()

	newCtx := WithStage(ctx, runID, "prompts", "Completeness, Uniqueness")

	if GetRunID(ctx) != nil {
		t.Error("original context should not have a run ID")
	}

	gotID := GetRunID(newCtx)
	if gotID == nil {
		t.Fatal("expected run ID in context")
	}
	if *gotID != runID {
		t.Errorf("expected run ID %s, got %s", runID, *gotID)
	}

	values := GetContext(newCtx)
	if values["stage"] != "prompts" {
		t.Errorf("expected stage=prompts, got %v", values["stage"])
	}
	if values["item"] != "Completeness, Uniqueness" {
		t.Errorf("expected item label, got %v", values["item"])
	}
}

func TestWithStage_OmitsEmptyItem(t *testing.T) {
	ctx := WithStage(context.Background(), uuid.New(), "reasoning", "")
	if _, ok := GetContext(ctx)["item"]; ok {
		t.Error("empty item should not be recorded")
	}
}

func TestGetRunID_ReturnsNilForInvalidValue(t *testing.T) {
	ctx := WithContext(context.Background(), map[string]any{"run_id": "not-a-uuid"})
	if GetRunID(ctx) != nil {
		t.Error("expected nil when run_id is not a valid UUID")
	}
}

func TestWithContext_MergesValues(t *testing.T) {
	runID := uuid.New()
	ctx := WithStage(context.Background(), runID, "expectations", "")
	ctx = WithContext(ctx, map[string]any{"item": "prompt 3"})

	values := GetContext(ctx)
	if values["stage"] != "expectations" || values["item"] != "prompt 3" {
		t.Errorf("expected merged values, got %v", values)
	}
	if got := GetRunID(ctx); got == nil || *got != runID {
		t.Errorf("run ID lost after merge")
	}
}

func TestGetContext_ReturnsCopy(t *testing.T) {
	ctx := WithContext(context.Background(), map[string]any{"stage": "prompts"})

	values := GetContext(ctx)
	values["stage"] = "mutated"

	if GetContext(ctx)["stage"] != "prompts" {
		t.Error("mutating the returned map must not affect the context")
	}
}

func TestContextFields_StableOrder(t *testing.T) {
	ctx := WithContext(context.Background(), map[string]any{"stage": "prompts", "item": "A, B", "run_id": "x"})

	fields := contextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Key != "item" || fields[1].Key != "run_id" || fields[2].Key != "stage" {
		t.Errorf("expected fields sorted by key, got %s %s %s", fields[0].Key, fields[1].Key, fields[2].Key)
	}
	if contextFields(context.Background()) != nil {
		t.Error("expected no fields for empty context")
	}
}
