// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PublicMenuKey is the cache key of a restaurant's public menu document.
// An empty menuSlug addresses the restaurant's default menu.
func PublicMenuKey(restaurantSlug, menuSlug string) string {
	if menuSlug == "" {
		return "public.menu." + restaurantSlug
	}
	return "public.menu." + restaurantSlug + "." + menuSlug
}
