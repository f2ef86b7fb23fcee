package redisx

import (
	"context"
	"fmt"
	"github.com/redis/go-redis/v9"
)

// Idempotency remembers which order a client-supplied key produced.
// Fast path only: a lost key means a duplicate order, not a failed one.
type Idempotency struct{ Redis redis.Cmdable }

func (i *Idempotency) Lookup(ctx context.Context, key string) (string, bool, error) {
	return GetString(ctx, i.Redis, fmt.Sprintf(KeyIdemOrderCreate, key))
}

func (i *Idempotency) Remember(ctx context.Context, key, orderID string) error {
	return i.Redis.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, key), orderID, TTLIdempotency).Err()
}
