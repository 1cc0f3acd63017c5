package problem

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/codeg/judge/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "codeg:problem:"

var _ Catalog = &Cache{}

// Cache keeps the test cases of recently used problems in redis. Redis
// failures fall through to the underlying catalog.
type Cache struct {
	next   Catalog
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps next with a redis read through cache
func NewCache(next Catalog, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Get implements Catalog
func (c *Cache) Get(ctx context.Context, id string) ([]types.TestCase, error) {
	key := cacheKeyPrefix + id

	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cases []types.TestCase
		if err := json.Unmarshal(b, &cases); err == nil {
			return cases, nil
		}
		c.logger.Warn("drop malformed cache entry", zap.String("problem", id))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("problem cache get failed", zap.String("problem", id), zap.Error(err))
	}

	cases, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cases); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.logger.Warn("problem cache set failed", zap.String("problem", id), zap.Error(err))
		}
	}
	return cases, nil
}

// Invalidate removes the cached entry of the problem
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, cacheKeyPrefix+id).Err()
}
