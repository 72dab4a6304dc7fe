package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay=5s, got %v", cfg.MaxDelay)
	}
}

func TestProviderConfig(t *testing.T) {
	cfg := ProviderConfig(2)
	if cfg.MaxRetries != 2 {
		t.Errorf("expected MaxRetries=2, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay < time.Second {
		t.Errorf("provider backoff should start at a second or more, got %v", cfg.InitialDelay)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		callCount++
		if callCount < 3 {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	expectedErr := errors.New("persistent error")
	callCount := 0
	err := Do(context.Background(), fastConfig(2), func() error {
		callCount++
		return expectedErr
	})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	// MaxRetries=2 means: initial attempt + 2 retries = 3 total calls
	if callCount != 3 {
		t.Errorf("expected 3 calls (1 initial + 2 retries), got %d", callCount)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	callCount := 0
	start := time.Now()
	err := Do(ctx, cfg, func() error {
		callCount++
		return errors.New("error")
	})

	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if elapsed := time.Since(start); elapsed > 90*time.Millisecond {
		t.Errorf("expected quick cancellation, took %v", elapsed)
	}
}

func TestDo_NilConfig(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), nil, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error with nil config, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDoWithResult_KeepsLastResult(t *testing.T) {
	expectedErr := errors.New("persistent error")
	result, err := DoWithResult(context.Background(), fastConfig(1), func() (string, error) {
		return "partial", expectedErr
	})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if result != "partial" {
		t.Errorf("expected 'partial' result, got %s", result)
	}
}

func TestWait(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		if err := Wait(context.Background(), 0); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		start := time.Now()
		if err := Wait(ctx, time.Minute); err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if time.Since(start) > 50*time.Millisecond {
			t.Errorf("Wait should return as soon as ctx is done")
		}
	})

	t.Run("elapses", func(t *testing.T) {
		start := time.Now()
		if err := Wait(context.Background(), 10*time.Millisecond); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
		if time.Since(start) < 10*time.Millisecond {
			t.Errorf("Wait returned early")
		}
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"Connection Refused (uppercase)", errors.New("Connection Refused"), true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"i/o timeout", errors.New("i/o timeout"), true},
		{"openai rate limit", errors.New("error, status code: 429, message: Rate limit reached for gpt-4o-mini"), true},
		{"openai server error", errors.New("error, status code: 503, message: The server is overloaded"), true},
		{"anthropic overloaded", errors.New("anthropic api error type: overloaded_error, message: Overloaded"), true},
		{"gemini quota", errors.New("Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED"), true},
		{"context canceled", context.Canceled, false},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), false},
		{"auth error", errors.New("authentication failed"), false},
		{"invalid model", errors.New("The model `gpt-9` does not exist"), false},
		{"bad request", errors.New("invalid_request_error: messages: field required"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsRetryable(tt.err)
			if result != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, expected %v", tt.err, result, tt.expected)
			}
		})
	}
}

type declaredError struct {
	retryable bool
}

func (e *declaredError) Error() string     { return "HTTP 503 from upstream" }
func (e *declaredError) IsRetryable() bool { return e.retryable }

func TestIsRetryable_DeclaredOverridesPattern(t *testing.T) {
	// Text says 503, the error itself says permanent.
	err := fmt.Errorf("wrapped: %w", &declaredError{retryable: false})
	if IsRetryable(err) {
		t.Errorf("declared retryability should win over pattern matching")
	}
}

func TestDoWithResultIfRetryable_NonRetryableError(t *testing.T) {
	expectedErr := errors.New("authentication failed")
	callCount := 0
	_, err := DoWithResultIfRetryable(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		return "", expectedErr
	})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call (no retries), got %d", callCount)
	}
}

func TestDoWithResultIfRetryable_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	text, err := DoWithResultIfRetryable(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.New("status code: 429")
		}
		return "1. \"Check that ids are unique\"", nil
	})

	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if text == "" {
		t.Errorf("expected response text")
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDoWithResultIfRetryable_EscalatesRepeatedErrorType(t *testing.T) {
	cfg := fastConfig(10)
	cfg.MaxSameErrorType = 3

	callCount := 0
	_, err := DoWithResultIfRetryable(context.Background(), cfg, func() (int, error) {
		callCount++
		return 0, errors.New("status code: 503")
	})

	if err == nil {
		t.Fatal("expected escalation error")
	}
	if !strings.Contains(err.Error(), "repeated error (3 times, type=503)") {
		t.Errorf("unexpected error: %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls before escalation, got %d", callCount)
	}
}

func TestClassifyErrorType(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, "nil"},
		{errors.New("status code: 429"), "429"},
		{errors.New("connection refused"), "connection"},
		{errors.New("i/o timeout"), "timeout"},
		{errors.New("rate limit reached"), "rate_limit"},
		{errors.New("Overloaded"), "overloaded"},
		{errors.New("something else"), "unknown"},
	}
	for _, tt := range tests {
		if got := classifyErrorType(tt.err); got != tt.expected {
			t.Errorf("classifyErrorType(%v) = %q, want %q", tt.err, got, tt.expected)
		}
	}
}
