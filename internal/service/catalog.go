package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/audit"
	"github.com/Strob0t/MenuForge/internal/domain/icon"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/domain/qrcode"
	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/domain/slug"
	"github.com/Strob0t/MenuForge/internal/domain/tenant"
	"github.com/Strob0t/MenuForge/internal/domain/translation"
	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/database"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
)

// CatalogService performs administrative catalog mutations. Each operation
// runs in one transaction; QR regeneration and audit are tolerant steps whose
// failures come back as Warnings. actor is the acting user id, nil for
// system actions.
type CatalogService struct {
	store  database.Store
	qr     *QRService
	audit  *AuditRecorder
	public *PublicService // nil disables cache invalidation
	events *Publisher
	log    *slog.Logger
}

// NewCatalogService creates a CatalogService. public and events may be nil.
func NewCatalogService(store database.Store, qr *QRService, recorder *AuditRecorder, public *PublicService, events *Publisher, log *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		qr:     qr,
		audit:  recorder,
		public: public,
		events: events,
		log:    log,
	}
}

// run executes fn in a transaction and performs the post-commit work.
func (s *CatalogService) run(ctx context.Context, actor *string, reason string, fn func(t *txn) error) (Warnings, error) {
	t := &txn{actor: actor, reason: reason}
	err := s.store.InTx(ctx, func(tx database.Store) error {
		t.tx = tx
		return fn(t)
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, t)
	for _, w := range t.warn {
		logger.FromContext(ctx, s.log).Warn("catalog step warning", "operation", reason, "warning", w)
	}
	return t.warn, nil
}

func (s *CatalogService) finish(ctx context.Context, t *txn) {
	if len(t.keys) > 0 {
		if s.public != nil {
			s.public.Invalidate(ctx, t.keys)
		}
		t.out.add(messagequeue.SubjectCatalogChanged, messagequeue.CatalogChangedPayload{
			TenantID:        t.tenantID,
			RestaurantSlugs: t.slugs,
			Keys:            t.keys,
			Reason:          t.reason,
		})
	}
	s.events.Flush(ctx, &t.out)
}

// CreateRestaurant creates a restaurant and reserves its platform-wide slug.
func (s *CatalogService) CreateRestaurant(ctx context.Context, actor *string, req restaurant.CreateRequest, policy slug.Policy) (*restaurant.Restaurant, Warnings, error) {
	var r *restaurant.Restaurant
	warn, err := s.run(ctx, actor, string(audit.ActionRestaurantCreate), func(t *txn) error {
		var err error
		r, err = s.createRestaurant(ctx, t.tx, req, policy)
		if err != nil {
			return err
		}
		s.record(ctx, t, audit.Entry{
			TenantID: r.TenantID,
			Action:   audit.ActionRestaurantCreate,
			Entity:   "restaurant",
			EntityID: r.ID,
			Payload:  map[string]any{"name": r.Name, "slug": r.Slug},
		})
		t.out.add(messagequeue.SubjectRestaurantCreated, messagequeue.RestaurantCreatedPayload{
			TenantID:     r.TenantID,
			RestaurantID: r.ID,
			Slug:         r.Slug,
		})
		t.touch(r.TenantID, r.Slug)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return r, warn, nil
}

// CreateMenu creates a menu under a restaurant and generates its QR code.
func (s *CatalogService) CreateMenu(ctx context.Context, actor *string, req menu.CreateRequest, policy slug.Policy) (*menu.Menu, Warnings, error) {
	var m *menu.Menu
	warn, err := s.run(ctx, actor, string(audit.ActionMenuCreate), func(t *txn) error {
		var (
			r   *restaurant.Restaurant
			err error
		)
		m, r, err = s.createMenu(ctx, t.tx, req, policy)
		if err != nil {
			return err
		}
		if _, err := s.generateQR(ctx, t, m.ID, r.Slug); err != nil {
			return err
		}
		s.record(ctx, t, audit.Entry{
			TenantID: m.TenantID,
			Action:   audit.ActionMenuCreate,
			Entity:   "menu",
			EntityID: m.ID,
			Payload:  map[string]any{"name": m.Name, "slug": m.Slug, "status": m.Status},
		})
		t.touch(m.TenantID, r.Slug, m.Slug)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, warn, nil
}

// CreateSection appends a section to a menu.
func (s *CatalogService) CreateSection(ctx context.Context, req menu.CreateSectionRequest) (*menu.Section, error) {
	var sec *menu.Section
	_, err := s.run(ctx, nil, "section.create", func(t *txn) error {
		var err error
		if sec, err = s.createSection(ctx, t.tx, req); err != nil {
			return err
		}
		return s.touchMenu(ctx, t, sec.MenuID)
	})
	if err != nil {
		return nil, err
	}
	return sec, nil
}

// CreateItem creates an item with its prices and tags it with icon codes.
// Unknown icon codes are skipped and returned as warnings.
func (s *CatalogService) CreateItem(ctx context.Context, req menu.CreateItemRequest, iconCodes []string) (*menu.Item, Warnings, error) {
	var it *menu.Item
	warn, err := s.run(ctx, nil, "item.create", func(t *txn) error {
		var err error
		if it, err = s.createItem(ctx, t.tx, req); err != nil {
			return err
		}
		if len(iconCodes) > 0 {
			icons, err := t.tx.ListIcons(ctx)
			if err != nil {
				return fmt.Errorf("load icons: %w", err)
			}
			w, err := s.tagItem(ctx, t.tx, it, icon.NewCatalog(icons), iconCodes)
			t.warn = append(t.warn, w...)
			if err != nil {
				return err
			}
		}
		return s.touchMenu(ctx, t, it.MenuID)
	})
	if err != nil {
		return nil, nil, err
	}
	return it, warn, nil
}

// SetItemActive hides or shows an item on the public menu.
func (s *CatalogService) SetItemActive(ctx context.Context, itemID string, active bool) error {
	_, err := s.run(ctx, nil, "item.set_active", func(t *txn) error {
		it, err := t.tx.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("item %s: %w", itemID, err)
		}
		if err := t.tx.SetItemActive(ctx, it.ID, active); err != nil {
			return fmt.Errorf("set item %s active=%v: %w", it.ID, active, err)
		}
		return s.touchMenu(ctx, t, it.MenuID)
	})
	return err
}

// ReorderSections assigns sort orders 1..n following orderedIDs, which must
// list every section of the menu exactly once. The menu row is locked for the
// duration so concurrent reorders serialize.
func (s *CatalogService) ReorderSections(ctx context.Context, menuID string, orderedIDs []string) error {
	_, err := s.run(ctx, nil, "section.reorder", func(t *txn) error {
		m, err := t.tx.LockMenu(ctx, menuID)
		if err != nil {
			return fmt.Errorf("reorder menu %s: %w", menuID, err)
		}
		sections, err := t.tx.ListSections(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("reorder menu %s: %w", menuID, err)
		}

		own := make(map[string]bool, len(sections))
		for i := range sections {
			own[sections[i].ID] = true
		}
		seen := make(map[string]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if !own[id] {
				return fmt.Errorf("reorder menu %s: section %s is not part of this menu: %w", menuID, id, domain.ErrTenantMismatch)
			}
			if seen[id] {
				return fmt.Errorf("reorder menu %s: %w: section %s listed twice", menuID, domain.ErrValidation, id)
			}
			seen[id] = true
		}
		if len(seen) != len(own) {
			return fmt.Errorf("reorder menu %s: %w: expected %d sections, got %d", menuID, domain.ErrValidation, len(own), len(seen))
		}

		if err := t.tx.SetSectionOrder(ctx, m.ID, orderedIDs); err != nil {
			return fmt.Errorf("reorder menu %s: %w", menuID, err)
		}
		return s.touchMenu(ctx, t, m.ID)
	})
	return err
}

// AddTranslation stores a localized string for a tenant-owned entity.
func (s *CatalogService) AddTranslation(ctx context.Context, tr translation.Translation) (*translation.Translation, error) {
	_, err := s.run(ctx, nil, "translation.create", func(t *txn) error {
		return s.createTranslation(ctx, t.tx, &tr)
	})
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// ChangeRestaurantSlug renames the restaurant's public path and regenerates
// the QR code of every menu under it.
func (s *CatalogService) ChangeRestaurantSlug(ctx context.Context, actor *string, restaurantID, candidate string) (*restaurant.Restaurant, Warnings, error) {
	var r *restaurant.Restaurant
	warn, err := s.run(ctx, actor, string(audit.ActionRestaurantSlugChange), func(t *txn) error {
		var err error
		if r, err = t.tx.GetRestaurant(ctx, restaurantID); err != nil {
			return fmt.Errorf("restaurant %s: %w", restaurantID, err)
		}
		if slug.Normalize(candidate) == r.Slug {
			return nil
		}
		next, err := slug.Reserve(ctx, t.tx, slug.RestaurantScope(), candidate, slug.FailOnConflict)
		if err != nil {
			return fmt.Errorf("restaurant %s: %w", r.ID, err)
		}
		menus, err := t.tx.ListMenus(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("restaurant %s: list menus: %w", r.ID, err)
		}
		if err := t.tx.UpdateRestaurantSlug(ctx, r.ID, next); err != nil {
			return fmt.Errorf("restaurant %s: update slug: %w", r.ID, err)
		}

		prev := r.Slug
		r.Slug = next
		t.touch(r.TenantID, prev, menuSlugs(menus)...)
		t.touch(r.TenantID, next, menuSlugs(menus)...)

		for i := range menus {
			if _, err := s.generateQR(ctx, t, menus[i].ID, next); err != nil {
				return err
			}
		}
		s.record(ctx, t, audit.Entry{
			TenantID: r.TenantID,
			Action:   audit.ActionRestaurantSlugChange,
			Entity:   "restaurant",
			EntityID: r.ID,
			Payload:  map[string]any{"from": prev, "to": next},
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return r, warn, nil
}

// ChangeMenuSlug renames a menu within its restaurant and regenerates its QR code.
func (s *CatalogService) ChangeMenuSlug(ctx context.Context, actor *string, menuID, candidate string) (*menu.Menu, Warnings, error) {
	var m *menu.Menu
	warn, err := s.run(ctx, actor, string(audit.ActionMenuSlugChange), func(t *txn) error {
		var err error
		if m, err = t.tx.LockMenu(ctx, menuID); err != nil {
			return fmt.Errorf("menu %s: %w", menuID, err)
		}
		if slug.Normalize(candidate) == m.Slug {
			return nil
		}
		r, err := t.tx.GetRestaurant(ctx, m.RestaurantID)
		if err != nil {
			return fmt.Errorf("menu %s: restaurant: %w", m.ID, err)
		}
		next, err := slug.Reserve(ctx, t.tx, slug.MenuScope(r.ID), candidate, slug.FailOnConflict)
		if err != nil {
			return fmt.Errorf("menu %s: %w", m.ID, err)
		}
		if err := t.tx.UpdateMenuSlug(ctx, m.ID, next); err != nil {
			return fmt.Errorf("menu %s: update slug: %w", m.ID, err)
		}

		prev := m.Slug
		m.Slug = next
		t.touch(m.TenantID, r.Slug, prev, next)

		if _, err := s.generateQR(ctx, t, m.ID, r.Slug); err != nil {
			return err
		}
		s.record(ctx, t, audit.Entry{
			TenantID: m.TenantID,
			Action:   audit.ActionMenuSlugChange,
			Entity:   "menu",
			EntityID: m.ID,
			Payload:  map[string]any{"from": prev, "to": next},
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, warn, nil
}

// ChangeMenuStatus publishes, unpublishes or archives a menu. Archiving
// deactivates the QR code; leaving ARCHIVED generates a fresh one.
func (s *CatalogService) ChangeMenuStatus(ctx context.Context, actor *string, menuID string, status menu.Status) (*menu.Menu, Warnings, error) {
	if !menu.ValidStatuses[status] {
		return nil, nil, fmt.Errorf("menu %s: %w: invalid status %q", menuID, domain.ErrValidation, status)
	}
	var m *menu.Menu
	warn, err := s.run(ctx, actor, string(audit.ActionMenuStatusChange), func(t *txn) error {
		var err error
		if m, err = t.tx.LockMenu(ctx, menuID); err != nil {
			return fmt.Errorf("menu %s: %w", menuID, err)
		}
		if m.Status == status {
			return nil
		}
		r, err := t.tx.GetRestaurant(ctx, m.RestaurantID)
		if err != nil {
			return fmt.Errorf("menu %s: restaurant: %w", m.ID, err)
		}
		if err := t.tx.UpdateMenuStatus(ctx, m.ID, status); err != nil {
			return fmt.Errorf("menu %s: update status: %w", m.ID, err)
		}

		prev := m.Status
		m.Status = status
		m.IsActive = status != menu.StatusArchived

		switch {
		case status == menu.StatusArchived:
			if err := t.tx.DeactivateQRCode(ctx, m.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("menu %s: deactivate qr: %w", m.ID, err)
			}
		case prev == menu.StatusArchived:
			if _, err := s.generateQR(ctx, t, m.ID, r.Slug); err != nil {
				return err
			}
		}

		s.record(ctx, t, audit.Entry{
			TenantID: m.TenantID,
			Action:   audit.ActionMenuStatusChange,
			Entity:   "menu",
			EntityID: m.ID,
			Payload:  map[string]any{"from": prev, "to": status},
		})
		t.touch(m.TenantID, r.Slug, m.Slug)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return m, warn, nil
}

// DeactivateRestaurant hides a restaurant and all of its menus from the
// public. Rows are kept.
func (s *CatalogService) DeactivateRestaurant(ctx context.Context, actor *string, restaurantID string) (Warnings, error) {
	return s.run(ctx, actor, string(audit.ActionRestaurantDeactivate), func(t *txn) error {
		r, err := t.tx.GetRestaurant(ctx, restaurantID)
		if err != nil {
			return fmt.Errorf("restaurant %s: %w", restaurantID, err)
		}
		if !r.IsActive {
			return nil
		}
		menus, err := t.tx.ListMenus(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("restaurant %s: list menus: %w", r.ID, err)
		}
		if err := t.tx.DeactivateRestaurant(ctx, r.ID); err != nil {
			return fmt.Errorf("restaurant %s: deactivate: %w", r.ID, err)
		}
		s.record(ctx, t, audit.Entry{
			TenantID: r.TenantID,
			Action:   audit.ActionRestaurantDeactivate,
			Entity:   "restaurant",
			EntityID: r.ID,
		})
		t.touch(r.TenantID, r.Slug, menuSlugs(menus)...)
		return nil
	})
}

// ChangeTenantStatus moves a tenant through its lifecycle. Non-operational
// tenants disappear from the public read path.
func (s *CatalogService) ChangeTenantStatus(ctx context.Context, actor *string, tenantID string, status tenant.Status) (Warnings, error) {
	if !tenant.ValidStatuses[status] {
		return nil, fmt.Errorf("tenant %s: %w: invalid status %q", tenantID, domain.ErrValidation, status)
	}
	return s.run(ctx, actor, string(audit.ActionTenantStatusChange), func(t *txn) error {
		tnt, err := t.tx.GetTenant(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("tenant %s: %w", tenantID, err)
		}
		if tnt.Status == status {
			return nil
		}
		if err := t.tx.UpdateTenantStatus(ctx, tnt.ID, status); err != nil {
			return fmt.Errorf("tenant %s: update status: %w", tnt.ID, err)
		}

		restaurants, err := t.tx.ListRestaurants(ctx, tnt.ID)
		if err != nil {
			return fmt.Errorf("tenant %s: list restaurants: %w", tnt.ID, err)
		}
		for i := range restaurants {
			menus, err := t.tx.ListMenus(ctx, restaurants[i].ID)
			if err != nil {
				return fmt.Errorf("tenant %s: list menus: %w", tnt.ID, err)
			}
			t.touch(tnt.ID, restaurants[i].Slug, menuSlugs(menus)...)
		}

		s.record(ctx, t, audit.Entry{
			TenantID: tnt.ID,
			Action:   audit.ActionTenantStatusChange,
			Entity:   "tenant",
			EntityID: tnt.ID,
			Payload:  map[string]any{"from": tnt.Status, "to": status},
		})
		return nil
	})
}

// RegenerateQR re-derives a menu's public URL and replaces its QR code. The
// returned code is nil when generation failed; the failure is in Warnings.
func (s *CatalogService) RegenerateQR(ctx context.Context, menuID string) (*qrcode.QRCode, Warnings, error) {
	var q *qrcode.QRCode
	warn, err := s.run(ctx, nil, "qr.regenerate", func(t *txn) error {
		m, err := t.tx.GetMenu(ctx, menuID)
		if err != nil {
			return fmt.Errorf("menu %s: %w", menuID, err)
		}
		r, err := t.tx.GetRestaurant(ctx, m.RestaurantID)
		if err != nil {
			return fmt.Errorf("menu %s: restaurant: %w", m.ID, err)
		}
		q, err = s.generateQR(ctx, t, m.ID, r.Slug)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return q, warn, nil
}

// ListAudit returns the newest audit rows of a tenant.
func (s *CatalogService) ListAudit(ctx context.Context, tenantID string, limit int) ([]audit.Log, error) {
	return s.audit.List(ctx, s.store, tenantID, limit)
}

func (s *CatalogService) touchMenu(ctx context.Context, t *txn, menuID string) error {
	m, err := t.tx.GetMenu(ctx, menuID)
	if err != nil {
		return fmt.Errorf("menu %s: %w", menuID, err)
	}
	r, err := t.tx.GetRestaurant(ctx, m.RestaurantID)
	if err != nil {
		return fmt.Errorf("menu %s: restaurant: %w", m.ID, err)
	}
	t.touch(m.TenantID, r.Slug, m.Slug)
	return nil
}
