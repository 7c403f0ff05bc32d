package cache

import (
	"context"
	"time"

	"bizmail_server/pkg/logger"
)

// Store is the key/value contract every cache in this package satisfies.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// DefaultL1TTL caps how long an entry stays in the in-process tier.
const DefaultL1TTL = 2 * time.Minute

// Tiered puts a short-lived in-process cache (L1) in front of a shared
// store (L2) to save round trips for repeated keys.
type Tiered struct {
	l1    *MemoryCache
	l2    Store
	l1TTL time.Duration
}

func NewTiered(l1 *MemoryCache, l2 Store, l1TTL time.Duration) *Tiered {
	if l1TTL <= 0 {
		l1TTL = DefaultL1TTL
	}
	return &Tiered{l1: l1, l2: l2, l1TTL: l1TTL}
}

// Get checks L1, then L2. An L2 hit is copied into L1.
func (t *Tiered) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok, _ := t.l1.Get(ctx, key); ok {
		return value, true, nil
	}

	value, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	_ = t.l1.Set(ctx, key, value, t.l1TTL)
	return value, true, nil
}

// Set writes both tiers. L1 keeps the entry for at most the L1 TTL.
func (t *Tiered) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = t.l1.Set(ctx, key, value, min(ttl, t.l1TTL))

	if err := t.l2.Set(ctx, key, value, ttl); err != nil {
		logger.WithField("key", key).WithError(err).Warn("l2 cache write failed")
		return err
	}
	return nil
}
