package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/upb/storefront-assistant/internal/cache"
	"github.com/upb/storefront-assistant/internal/observability"
	"go.uber.org/zap"
)

// CachedEmbedder memoizes present vectors in a cache. Cache failures are
// logged and never change the outcome of Embed.
type CachedEmbedder struct {
	next    Embedder
	cache   cache.Client
	model   string
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewCachedEmbedder wraps next with a cache keyed by model and text
func NewCachedEmbedder(next Embedder, c cache.Client, model string, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *CachedEmbedder {
	return &CachedEmbedder{
		next:    next,
		cache:   c,
		model:   model,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Embed implements Embedder
func (e *CachedEmbedder) Embed(ctx context.Context, text string) (Vector, bool) {
	key := e.key(text)

	if raw, err := e.cache.Get(ctx, key); err == nil {
		var vec Vector
		if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
			e.metrics.RecordEmbedding("cache_hit", 0)
			return vec, true
		}
		e.logger.Warn("discarding malformed cached embedding", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		e.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	vec, ok := e.next.Embed(ctx, text)
	if !ok {
		return nil, false
	}

	if raw, err := json.Marshal(vec); err == nil {
		if err := e.cache.Set(ctx, key, raw, e.ttl); err != nil {
			e.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}
	return vec, true
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + text))
	return cache.Key(e.model, hex.EncodeToString(sum[:]))
}
