package cache

import (
	"context"
	"time"
)

// Store is a byte-level key/value mirror for fetched upstream payloads.
// The query cache keeps its authoritative state in memory; a shared Store
// (redis) lets warm replicas start from an already-fetched page.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
