package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/audit"
	"github.com/Strob0t/MenuForge/internal/domain/icon"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/domain/qrcode"
	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/domain/slug"
	"github.com/Strob0t/MenuForge/internal/domain/translation"
	"github.com/Strob0t/MenuForge/internal/port/database"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
)

// The write helpers below perform one entity write each, after checking the
// cross-tenant links in the service so callers get a descriptive
// ErrTenantMismatch. The schema enforces the same links as a backstop.

func (s *CatalogService) createRestaurant(ctx context.Context, tx database.Store, req restaurant.CreateRequest, policy slug.Policy) (*restaurant.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid("restaurant", err)
	}
	tnt, err := tx.GetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("restaurant %q: tenant %s: %w", req.Name, req.TenantID, err)
	}
	if !tnt.Status.Operational() {
		return nil, fmt.Errorf("restaurant %q: %w: tenant %s is %s", req.Name, domain.ErrValidation, tnt.ID, tnt.Status)
	}

	sl, err := slug.Reserve(ctx, tx, slug.RestaurantScope(), req.SlugCandidate(), policy)
	if err != nil {
		return nil, fmt.Errorf("restaurant %q: %w", req.Name, err)
	}

	r := &restaurant.Restaurant{
		ID:       newID(),
		TenantID: tnt.ID,
		Name:     strings.TrimSpace(req.Name),
		Slug:     sl,
		Contact:  req.Contact,
		IsActive: true,
	}
	if err := tx.CreateRestaurant(ctx, r); err != nil {
		return nil, fmt.Errorf("create restaurant %q: %w", sl, err)
	}
	return r, nil
}

func (s *CatalogService) createMenu(ctx context.Context, tx database.Store, req menu.CreateRequest, policy slug.Policy) (*menu.Menu, *restaurant.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, invalid("menu", err)
	}
	r, err := tx.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, nil, fmt.Errorf("menu %q: restaurant %s: %w", req.Name, req.RestaurantID, err)
	}
	if r.TenantID != req.TenantID {
		return nil, nil, fmt.Errorf("menu %q: restaurant %s belongs to another tenant: %w", req.Name, r.ID, domain.ErrTenantMismatch)
	}

	sl, err := slug.Reserve(ctx, tx, slug.MenuScope(r.ID), req.SlugCandidate(), policy)
	if err != nil {
		return nil, nil, fmt.Errorf("menu %q: %w", req.Name, err)
	}

	m := &menu.Menu{
		ID:           newID(),
		TenantID:     r.TenantID,
		RestaurantID: r.ID,
		Name:         strings.TrimSpace(req.Name),
		Slug:         sl,
		Status:       req.Status,
		IsActive:     req.Status != menu.StatusArchived,
	}
	if err := tx.CreateMenu(ctx, m); err != nil {
		return nil, nil, fmt.Errorf("create menu %q: %w", sl, err)
	}
	return m, r, nil
}

func (s *CatalogService) createSection(ctx context.Context, tx database.Store, req menu.CreateSectionRequest) (*menu.Section, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid("section", err)
	}
	m, err := tx.GetMenu(ctx, req.MenuID)
	if err != nil {
		return nil, fmt.Errorf("section %q: menu %s: %w", req.Name, req.MenuID, err)
	}
	if m.TenantID != req.TenantID {
		return nil, fmt.Errorf("section %q: menu %s belongs to another tenant: %w", req.Name, m.ID, domain.ErrTenantMismatch)
	}

	sec := &menu.Section{
		ID:        newID(),
		TenantID:  m.TenantID,
		MenuID:    m.ID,
		Name:      strings.TrimSpace(req.Name),
		SortOrder: req.SortOrder,
		IsActive:  true,
	}
	if err := tx.CreateSection(ctx, sec); err != nil {
		return nil, fmt.Errorf("create section %q: %w", sec.Name, err)
	}
	return sec, nil
}

// createItem writes the item and all of its prices. An item without prices
// never reaches the store.
func (s *CatalogService) createItem(ctx context.Context, tx database.Store, req menu.CreateItemRequest) (*menu.Item, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid("item", err)
	}
	m, err := tx.GetMenu(ctx, req.MenuID)
	if err != nil {
		return nil, fmt.Errorf("item %q: menu %s: %w", req.Name, req.MenuID, err)
	}
	if m.TenantID != req.TenantID {
		return nil, fmt.Errorf("item %q: menu %s belongs to another tenant: %w", req.Name, m.ID, domain.ErrTenantMismatch)
	}
	sec, err := tx.GetSection(ctx, req.SectionID)
	if err != nil {
		return nil, fmt.Errorf("item %q: section %s: %w", req.Name, req.SectionID, err)
	}
	if sec.MenuID != m.ID || sec.TenantID != m.TenantID {
		return nil, fmt.Errorf("item %q: section %s belongs to menu %s, not %s: %w", req.Name, sec.ID, sec.MenuID, m.ID, domain.ErrTenantMismatch)
	}

	order := req.SortOrder
	if order < 1 {
		existing, err := tx.ListItems(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("item %q: list items: %w", req.Name, err)
		}
		order = 1
		for i := range existing {
			if existing[i].SectionID == sec.ID && existing[i].SortOrder >= order {
				order = existing[i].SortOrder + 1
			}
		}
	}

	it := &menu.Item{
		ID:          newID(),
		TenantID:    m.TenantID,
		MenuID:      m.ID,
		SectionID:   sec.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Active:      true,
		SortOrder:   order,
	}
	if err := tx.CreateItem(ctx, it); err != nil {
		return nil, fmt.Errorf("create item %q: %w", it.Name, err)
	}

	for _, pi := range req.Prices {
		p := &menu.Price{
			ID:          newID(),
			TenantID:    it.TenantID,
			ItemID:      it.ID,
			Currency:    pi.Currency,
			Label:       strings.TrimSpace(pi.Label),
			AmountMinor: pi.AmountMinor,
		}
		if err := tx.CreatePrice(ctx, p); err != nil {
			return nil, fmt.Errorf("create price %q for item %q: %w", p.Label, it.Name, err)
		}
		it.Prices = append(it.Prices, *p)
	}
	return it, nil
}

// tagItem attaches icons by code. Unknown codes are returned as warnings
// wrapping domain.ErrNotFound and do not stop the remaining tags.
func (s *CatalogService) tagItem(ctx context.Context, tx database.Store, it *menu.Item, icons icon.Catalog, codes []string) (Warnings, error) {
	var warn Warnings
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if seen[code] {
			continue
		}
		seen[code] = true
		ic, ok := icons.Lookup(code)
		if !ok {
			warn = append(warn, fmt.Errorf("item %q: icon %q: %w", it.Name, code, domain.ErrNotFound))
			continue
		}
		if err := tx.TagItem(ctx, it.ID, ic.ID); err != nil {
			return warn, fmt.Errorf("tag item %q with %q: %w", it.Name, code, err)
		}
		it.IconIDs = append(it.IconIDs, ic.ID)
	}
	return warn, nil
}

func (s *CatalogService) createTranslation(ctx context.Context, tx database.Store, tr *translation.Translation) error {
	if err := tr.Validate(); err != nil {
		return invalid("translation", err)
	}
	owner, err := entityTenant(ctx, tx, tr.EntityType, tr.EntityID)
	if err != nil {
		return fmt.Errorf("translation %s: %w", tr.Key, err)
	}
	if owner != tr.TenantID {
		return fmt.Errorf("translation %s: %s %s belongs to another tenant: %w", tr.Key, tr.EntityType, tr.EntityID, domain.ErrTenantMismatch)
	}
	tr.ID = newID()
	if err := tx.CreateTranslation(ctx, tr); err != nil {
		return fmt.Errorf("create translation %s/%s: %w", tr.Locale, tr.Key, err)
	}
	return nil
}

func entityTenant(ctx context.Context, tx database.Store, et translation.EntityType, id string) (string, error) {
	switch et {
	case translation.EntityRestaurant:
		r, err := tx.GetRestaurant(ctx, id)
		if err != nil {
			return "", err
		}
		return r.TenantID, nil
	case translation.EntityMenu:
		m, err := tx.GetMenu(ctx, id)
		if err != nil {
			return "", err
		}
		return m.TenantID, nil
	case translation.EntitySection:
		sec, err := tx.GetSection(ctx, id)
		if err != nil {
			return "", err
		}
		return sec.TenantID, nil
	case translation.EntityItem:
		it, err := tx.GetItem(ctx, id)
		if err != nil {
			return "", err
		}
		return it.TenantID, nil
	}
	return "", fmt.Errorf("%w: unknown entity type %q", domain.ErrValidation, et)
}

// record appends an audit entry attributed to the txn actor. Failures become
// warnings; successful rows are published after commit.
func (s *CatalogService) record(ctx context.Context, t *txn, e audit.Entry) {
	e.ActorUserID = t.actor
	l, err := s.audit.Record(ctx, t.tx, e)
	if err != nil {
		t.warn = append(t.warn, err)
		return
	}
	t.out.add(messagequeue.SubjectAudit, auditEvent(l))
}

// generateQR refreshes the menu's code. Dependency failures become warnings;
// anything else, such as a missing menu, is returned.
func (s *CatalogService) generateQR(ctx context.Context, t *txn, menuID, restaurantSlug string) (*qrcode.QRCode, error) {
	q, err := s.qr.Generate(ctx, t.tx, menuID, s.qr.PublicURL(restaurantSlug))
	if err != nil {
		if errors.Is(err, domain.ErrDependencyFailure) {
			t.warn = append(t.warn, err)
			return nil, nil
		}
		return nil, err
	}
	t.out.add(messagequeue.SubjectQRGenerated, qrEvent(q))
	return q, nil
}

func qrEvent(q *qrcode.QRCode) messagequeue.QRGeneratedPayload {
	return messagequeue.QRGeneratedPayload{
		TenantID: q.TenantID,
		MenuID:   q.MenuID,
		QRCodeID: q.ID,
		URL:      q.URL,
	}
}

func menuSlugs(menus []menu.Menu) []string {
	out := make([]string, len(menus))
	for i := range menus {
		out[i] = menus[i].Slug
	}
	return out
}
