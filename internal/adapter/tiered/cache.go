// Package tiered implements a two-level (L1 + L2) cache adapter for public
// menu documents.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/MenuForge/internal/port/cache"
)

// Cache combines an L1 (in-process) and optional L2 (shared) cache.
// Get checks L1 first, then L2, backfilling L1 on an L2 hit. L2 failures are
// logged and treated as misses so public reads keep working without NATS.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache // nil runs L1 only
	l1Expire time.Duration
	log      *slog.Logger
}

// New creates a tiered cache. l1Expire bounds how long entries live in L1,
// which limits staleness when another instance invalidates the L2 entry.
func New(l1, l2 cache.Cache, l1Expire time.Duration, log *slog.Logger) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire, log: log}
}

// Get checks L1, then L2.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found || c.l2 == nil {
		return val, found, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		c.log.Warn("l2 cache get failed", "key", key, "error", err)
		return nil, false, nil
	}
	if found {
		_ = c.l1.Set(ctx, key, val, c.l1Expire)
	}
	return val, found, nil
}

// Set writes to L1 (capped at l1Expire) and L2.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := ttl
	if l1TTL <= 0 || l1TTL > c.l1Expire {
		l1TTL = c.l1Expire
	}
	if err := c.l1.Set(ctx, key, value, l1TTL); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		c.log.Warn("l2 cache set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes from both levels. An L2 failure is returned so invalidation
// problems are visible to the caller.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	return c.l2.Delete(ctx, key)
}
