package out

import (
	"context"
	"time"
)

// CacheStore is a key/value store with expiry.
// Callers treat every error as a miss or a no-op.
type CacheStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
