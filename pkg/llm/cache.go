package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const embeddingKeyPrefix = "gelm:embedding"

// CachingEmbedder serves repeated texts from Redis. Re-embedding the same
// sample file or re-running a retrieval query then costs no provider call.
// Cache errors are logged and fall through to the inner embedder.
type CachingEmbedder struct {
	inner  Embedder
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingEmbedder wraps inner with a Redis cache. A zero ttl keeps entries forever.
func NewCachingEmbedder(inner Embedder, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachingEmbedder {
	return &CachingEmbedder{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.Named("embedding-cache"),
	}
}

// Model implements Embedder.
func (c *CachingEmbedder) Model() string {
	return c.inner.Model()
}

// cacheKey is scoped by Model so vectors of different models or
// dimensionalities never mix.
func (c *CachingEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return embeddingKeyPrefix + ":" + c.inner.Model() + ":" + hex.EncodeToString(sum[:])
}

// Embed implements Embedder.
func (c *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.cacheKey(t)
	}

	result := make([][]float32, len(texts))
	var missing []int

	cached, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Embedding cache read failed", zap.Error(err))
		cached = make([]any, len(texts))
	}

	for i, v := range cached {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err != nil || len(vec) == 0 {
			missing = append(missing, i)
			continue
		}
		result[i] = vec
	}

	if len(missing) == 0 {
		c.logger.Debug("Embedding cache hit", zap.Int("count", len(texts)))
		return result, nil
	}

	missTexts := make([]string, len(missing))
	for j, i := range missing {
		missTexts[j] = texts[i]
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	pipe := c.rdb.Pipeline()
	for j, i := range missing {
		result[i] = fresh[j]
		data, err := json.Marshal(fresh[j])
		if err != nil {
			continue
		}
		pipe.Set(ctx, keys[i], data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.Error(err))
	}

	c.logger.Debug("Embedding cache lookup",
		zap.Int("hits", len(texts)-len(missing)),
		zap.Int("misses", len(missing)))
	return result, nil
}
