package service

import (
	"errors"

	"github.com/Strob0t/MenuForge/internal/port/cache"
	"github.com/Strob0t/MenuForge/internal/port/database"
)

// Warnings are non-fatal failures of tolerant steps. The mutation they belong
// to committed.
type Warnings []error

// Err joins the warnings, or returns nil when there are none.
func (w Warnings) Err() error { return errors.Join(w...) }

// txn is the state of one transactional unit: the session handle plus
// everything that must happen only after commit.
type txn struct {
	tx     database.Store
	actor  *string
	out    outbox
	warn   Warnings
	reason string

	tenantID string
	slugs    []string
	keys     []string
	seen     map[string]bool
}

// touch marks public documents of a restaurant as stale. menuSlugs lists the
// menu documents affected in addition to the restaurant's default document.
func (t *txn) touch(tenantID, restaurantSlug string, menuSlugs ...string) {
	if t.seen == nil {
		t.seen = make(map[string]bool)
	}
	t.tenantID = tenantID
	if !t.seen["r:"+restaurantSlug] {
		t.seen["r:"+restaurantSlug] = true
		t.slugs = append(t.slugs, restaurantSlug)
	}
	keys := make([]string, 0, len(menuSlugs)+1)
	keys = append(keys, cache.PublicMenuKey(restaurantSlug, ""))
	for _, m := range menuSlugs {
		keys = append(keys, cache.PublicMenuKey(restaurantSlug, m))
	}
	for _, k := range keys {
		if !t.seen[k] {
			t.seen[k] = true
			t.keys = append(t.keys, k)
		}
	}
}
