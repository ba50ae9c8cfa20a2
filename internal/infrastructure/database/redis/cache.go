package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// VectorLoader computes a feature vector on a cache miss.
type VectorLoader func(ctx context.Context) ([]float64, error)

// FeatureCache memoizes feature vectors keyed by generator set and SMILES.
type FeatureCache interface {
	Get(ctx context.Context, key string) ([]float64, error)
	Set(ctx context.Context, key string, vec []float64, ttl time.Duration) error
	GetOrLoad(ctx context.Context, key string, loader VectorLoader) ([]float64, error)
	Delete(ctx context.Context, keys ...string) error
	Purge(ctx context.Context) (int64, error)
}

type featureCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	jitter     bool
	group      singleflight.Group
}

type CacheOption func(*featureCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *featureCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *featureCache) { c.defaultTTL = ttl }
}

// WithJitter spreads expirations by up to 10% either way.
func WithJitter(enabled bool) CacheOption {
	return func(c *featureCache) { c.jitter = enabled }
}

func NewFeatureCache(client *Client, log logging.Logger, opts ...CacheOption) FeatureCache {
	c := &featureCache{
		client:     client,
		logger:     logging.OrDefault(log),
		prefix:     "moldata:features:",
		defaultTTL: 24 * time.Hour,
		jitter:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *featureCache) fullKey(key string) string {
	return c.prefix + key
}

func (c *featureCache) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl <= 0 || !c.jitter {
		return ttl
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *featureCache) Get(ctx context.Context, key string) ([]float64, error) {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, ErrSerializationFailed.WithCause(err)
	}
	return vec, nil
}

func (c *featureCache) Set(ctx context.Context, key string, vec []float64, ttl time.Duration) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.ttl(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

// GetOrLoad returns the cached vector or runs loader once per key across
// concurrent callers. A failed write-back is logged and the loaded vector is
// still returned.
func (c *featureCache) GetOrLoad(ctx context.Context, key string, loader VectorLoader) ([]float64, error) {
	vec, err := c.Get(ctx, key)
	if err == nil {
		return vec, nil
	}
	if err != ErrCacheMiss {
		return nil, err
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(ctx, key, loaded, 0); setErr != nil {
			c.logger.Warn("Failed to set cache in GetOrLoad", logging.String("key", key), logging.Err(setErr))
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]float64)
	return append([]float64(nil), shared...), nil
}

func (c *featureCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Purge removes every key under the cache prefix.
func (c *featureCache) Purge(ctx context.Context) (int64, error) {
	var deleted int64
	var cursor uint64
	match := c.prefix + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += int64(len(keys))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

//Personal.AI order the ending
