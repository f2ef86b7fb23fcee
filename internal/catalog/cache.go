package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/ariefcatur/go-chipstore/internal/postgres"
	"github.com/ariefcatur/go-chipstore/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedStore serves single-product reads from Redis. Redis is never the source
// of truth: any cache error falls through to the underlying store.
type CachedStore struct {
	Store
	redis  redis.Cmdable
	logger *zap.Logger
}

func NewCachedStore(next Store, rdb redis.Cmdable, logger *zap.Logger) *CachedStore {
	return &CachedStore{Store: next, redis: rdb, logger: logger}
}

func productKey(id string) string { return fmt.Sprintf(redisx.KeyProduct, id) }

func versionKey(id string) string { return fmt.Sprintf(redisx.KeyProductVersion, id) }

// fillScript writes the product only if no invalidation happened since the
// version was read. KEYS: version, product. ARGV: version, payload, ttl ms.
var fillScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1]) or "0"
if v ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *CachedStore) Get(ctx context.Context, id string) (*Product, error) {
	raw, ok, err := redisx.GetString(ctx, c.redis, productKey(id))
	if err != nil {
		logx.Warn(ctx, c.logger, "product cache read failed", zap.String("product_id", id), zap.Error(err))
	}
	if ok {
		var p Product
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
		c.invalidate(ctx, id)
	}

	ver, ok, verErr := redisx.GetString(ctx, c.redis, versionKey(id))
	if !ok {
		ver = "0"
	}
	p, err := c.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if verErr == nil {
		c.fill(ctx, id, ver, p)
	}
	return p, nil
}

// fill caches p unless a write invalidated the product after ver was read.
func (c *CachedStore) fill(ctx context.Context, id, ver string, p *Product) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	err = fillScript.Run(ctx, c.redis, []string{versionKey(id), productKey(id)},
		ver, b, redisx.TTLProductCache.Milliseconds()).Err()
	if err != nil {
		logx.Warn(ctx, c.logger, "product cache write failed", zap.String("product_id", id), zap.Error(err))
	}
}

func (c *CachedStore) Update(ctx context.Context, p *Product) error {
	if err := c.Store.Update(ctx, p); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, p.ID)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, id string) error {
	if err := c.Store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, id)
	return nil
}

func (c *CachedStore) ApplyRatingDelta(ctx context.Context, productID string, oldRating, newRating *int) (*Product, error) {
	p, err := c.Store.ApplyRatingDelta(ctx, productID, oldRating, newRating)
	if err != nil {
		return nil, err
	}
	c.invalidateAfterCommit(ctx, productID)
	return p, nil
}

// invalidateAfterCommit drops the key once the write is visible to other readers.
func (c *CachedStore) invalidateAfterCommit(ctx context.Context, id string) {
	postgres.AfterCommit(ctx, func() { c.invalidate(context.WithoutCancel(ctx), id) })
}

func (c *CachedStore) invalidate(ctx context.Context, id string) {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.Expire(ctx, versionKey(id), redisx.TTLProductCache)
		pipe.Del(ctx, productKey(id))
		return nil
	})
	if err != nil {
		logx.Warn(ctx, c.logger, "product cache invalidate failed", zap.String("product_id", id), zap.Error(err))
	}
}
