package advisory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedScorer wraps an AdvisoryPort with a Redis result cache. Identical
// feature vectors within the TTL reuse the previous verdict instead of
// paying for another model call. Every cache failure degrades to a direct
// call, never to an error.
type CachedScorer struct {
	inner  crm.AdvisoryPort
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedScorer creates a caching decorator around an advisory scorer.
// The caller retains ownership of the Redis client.
func NewCachedScorer(inner crm.AdvisoryPort, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedScorer {
	return &CachedScorer{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// cacheKey derives a stable key from the feature vector
func (c *CachedScorer) cacheKey(features crm.LeadFeatures) (string, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("advisory:score:%s", hex.EncodeToString(sum[:])), nil
}

// Score returns a cached verdict when one exists, otherwise delegates to
// the wrapped scorer and stores its result
func (c *CachedScorer) Score(ctx context.Context, features crm.LeadFeatures) (crm.AdvisoryResult, error) {
	key, err := c.cacheKey(features)
	if err != nil {
		return c.inner.Score(ctx, features)
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var result crm.AdvisoryResult
		if err := json.Unmarshal(data, &result); err == nil {
			c.logger.Debug("advisory cache hit", zap.String("key", key))
			return result, nil
		}
		// Corrupted entry, drop it and re-score
		_ = c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("advisory cache read failed", zap.Error(err))
	}

	result, err := c.inner.Score(ctx, features)
	if err != nil {
		return crm.AdvisoryResult{}, err
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("advisory cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

var _ crm.AdvisoryPort = (*CachedScorer)(nil)
