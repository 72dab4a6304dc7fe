package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/logging"
	"github.com/malexternalsc/great-expectation-LLM/pkg/retry"
)

// ResilientClient retries transient provider failures with backoff and
// fails fast through a circuit breaker once the provider looks down.
type ResilientClient struct {
	inner   Client
	retry   *retry.Config
	breaker *CircuitBreaker // nil disables
	logger  *zap.Logger
}

// NewResilientClient wraps inner. A nil retry config uses retry.ProviderConfig(2).
func NewResilientClient(inner Client, retryCfg *retry.Config, breaker *CircuitBreaker, logger *zap.Logger) *ResilientClient {
	if retryCfg == nil {
		retryCfg = retry.ProviderConfig(2)
	}
	return &ResilientClient{
		inner:   inner,
		retry:   retryCfg,
		breaker: breaker,
		logger:  logger.Named("resilient"),
	}
}

// Provider implements Client.
func (c *ResilientClient) Provider() string {
	return c.inner.Provider()
}

// Complete implements Client.
func (c *ResilientClient) Complete(ctx context.Context, req *Request) (string, error) {
	if c.breaker != nil {
		if ok, err := c.breaker.Allow(); !ok {
			return "", err
		}
	}

	start := time.Now()
	attempt := 0
	text, err := retry.DoWithResultIfRetryable(ctx, c.retry, func() (string, error) {
		attempt++
		text, err := c.inner.Complete(ctx, req)
		if err != nil && IsRetryable(err) && attempt <= c.retry.MaxRetries {
			fields := append(contextFields(ctx),
				zap.String("provider", c.inner.Provider()),
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
			c.logger.Warn("Transient provider failure, retrying", fields...)
		}
		return text, err
	})

	if err != nil {
		// Cancellation of the run says nothing about provider health.
		if c.breaker != nil && ctx.Err() == nil {
			c.breaker.RecordFailure()
		}
		return "", err
	}

	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	c.logger.Debug("Completion succeeded",
		append(contextFields(ctx),
			zap.Int("attempts", attempt),
			zap.Duration("elapsed", time.Since(start)))...)
	return text, nil
}

// RetryingEmbedder retries transient embedding failures.
type RetryingEmbedder struct {
	inner Embedder
	retry *retry.Config
}

// NewRetryingEmbedder wraps inner. A nil retry config uses retry.ProviderConfig(2).
func NewRetryingEmbedder(inner Embedder, retryCfg *retry.Config) *RetryingEmbedder {
	if retryCfg == nil {
		retryCfg = retry.ProviderConfig(2)
	}
	return &RetryingEmbedder{inner: inner, retry: retryCfg}
}

// Model implements Embedder.
func (e *RetryingEmbedder) Model() string {
	return e.inner.Model()
}

// Embed implements Embedder.
func (e *RetryingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return retry.DoWithResultIfRetryable(ctx, e.retry, func() ([][]float32, error) {
		return e.inner.Embed(ctx, texts)
	})
}

var _ Embedder = (*RetryingEmbedder)(nil)
