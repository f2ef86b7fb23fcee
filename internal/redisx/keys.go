package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{Idempotency-Key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache product: product:{product_id} -> JSON product
	KeyProduct = "product:%s"

	// Bumped on every invalidation; read-through fills only land on a matching version.
	KeyProductVersion = "product:%s:ver"
)

var (
	TTLIdempotency  = 24 * time.Hour
	TTLProductCache = 10 * time.Minute
)
