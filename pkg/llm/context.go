package llm

import (
	"context"
	"maps"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	callContextKey contextKey = "llm_call_context"
)

// WithContext returns a context with call metadata attached for logging.
// The values are merged with any existing metadata.
func WithContext(ctx context.Context, values map[string]any) context.Context {
	existing := GetContext(ctx)
	if existing == nil {
		existing = make(map[string]any, len(values))
	}
	maps.Copy(existing, values)
	return context.WithValue(ctx, callContextKey, existing)
}

// GetContext returns a copy of the call metadata in ctx, or nil.
func GetContext(ctx context.Context) map[string]any {
	if c, ok := ctx.Value(callContextKey).(map[string]any); ok {
		return maps.Clone(c)
	}
	return nil
}

// WithStage tags calls made under ctx with the run, the pipeline stage and
// an item label such as a combination or a prompt number.
func WithStage(ctx context.Context, runID uuid.UUID, stage, item string) context.Context {
	values := map[string]any{
		"run_id": runID.String(),
		"stage":  stage,
	}
	if item != "" {
		values["item"] = item
	}
	return WithContext(ctx, values)
}

// contextFields converts call metadata to zap fields in a stable order.
func contextFields(ctx context.Context) []zap.Field {
	values := GetContext(ctx)
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, values[k]))
	}
	return fields
}

// GetRunID returns the run ID stored by WithStage, or nil.
func GetRunID(ctx context.Context) *uuid.UUID {
	values := GetContext(ctx)
	s, ok := values["run_id"].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
