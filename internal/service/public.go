package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/cache"
	"github.com/Strob0t/MenuForge/internal/port/database"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
)

// PublicService serves catalog content to unauthenticated callers. Only
// active restaurants of operational tenants are visible, and within them only
// active PUBLISHED menus with their active sections and items. Anything that
// is not visible is reported as domain.ErrNotFound.
type PublicService struct {
	store   database.Store
	cache   cache.Cache // nil disables caching
	ttl     time.Duration
	log     *slog.Logger
	metrics *mfotel.Metrics
}

// NewPublicService creates a PublicService. c may be nil.
func NewPublicService(store database.Store, c cache.Cache, ttl time.Duration, log *slog.Logger, metrics *mfotel.Metrics) *PublicService {
	return &PublicService{store: store, cache: c, ttl: ttl, log: log, metrics: metrics}
}

// Menu returns the public document of a restaurant's menu. An empty menuSlug
// selects the most recently updated published menu.
func (s *PublicService) Menu(ctx context.Context, restaurantSlug, menuSlug string) (*menu.PublicMenu, error) {
	restaurantSlug = strings.ToLower(restaurantSlug)
	menuSlug = strings.ToLower(menuSlug)
	key := cache.PublicMenuKey(restaurantSlug, menuSlug)

	if doc, ok := s.cached(ctx, key); ok {
		return doc, nil
	}

	r, m, err := s.resolve(ctx, restaurantSlug, menuSlug)
	if err != nil {
		return nil, err
	}
	doc, err := s.build(ctx, r, m)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(doc); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				logger.FromContext(ctx, s.log).Warn("cache public menu", "key", key, "error", err)
			}
		}
	}
	return doc, nil
}

// QRImage returns the PNG of a visible menu's active QR code.
func (s *PublicService) QRImage(ctx context.Context, restaurantSlug, menuSlug string) ([]byte, error) {
	_, m, err := s.resolve(ctx, strings.ToLower(restaurantSlug), strings.ToLower(menuSlug))
	if err != nil {
		return nil, err
	}
	q, err := s.store.GetQRCode(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("qr for menu %s: %w", m.Slug, err)
	}
	return DecodeImage(q)
}

// Invalidate drops cached documents.
func (s *PublicService) Invalidate(ctx context.Context, keys []string) {
	if s.cache == nil {
		return
	}
	for _, k := range keys {
		if err := s.cache.Delete(ctx, k); err != nil {
			logger.FromContext(ctx, s.log).Warn("invalidate public menu", "key", k, "error", err)
		}
	}
}

// Subscribe drops cached documents named by catalog.changed events so that
// every instance's in-process cache follows mutations made elsewhere.
func (s *PublicService) Subscribe(ctx context.Context, q messagequeue.Queue) (func(), error) {
	return q.Subscribe(ctx, messagequeue.SubjectCatalogChanged, func(ctx context.Context, _ string, data []byte) error {
		var p messagequeue.CatalogChangedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decode catalog change: %w", err)
		}
		s.Invalidate(ctx, p.Keys)
		return nil
	})
}

func (s *PublicService) cached(ctx context.Context, key string) (*menu.PublicMenu, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.FromContext(ctx, s.log).Warn("read public menu cache", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		mfotel.Count(ctx, s.metrics.PublicCache, "result", "miss")
		return nil, false
	}
	var doc menu.PublicMenu
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.FromContext(ctx, s.log).Warn("decode cached public menu", "key", key, "error", err)
		return nil, false
	}
	mfotel.Count(ctx, s.metrics.PublicCache, "result", "hit")
	return &doc, true
}

func (s *PublicService) resolve(ctx context.Context, restaurantSlug, menuSlug string) (*restaurant.Restaurant, *menu.Menu, error) {
	r, err := s.store.GetRestaurantBySlug(ctx, restaurantSlug)
	if err != nil {
		return nil, nil, fmt.Errorf("restaurant %q: %w", restaurantSlug, err)
	}
	if !r.IsActive {
		return nil, nil, fmt.Errorf("restaurant %q: %w", restaurantSlug, domain.ErrNotFound)
	}
	t, err := s.store.GetTenant(ctx, r.TenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("restaurant %q: tenant: %w", restaurantSlug, err)
	}
	if !t.Status.Operational() {
		return nil, nil, fmt.Errorf("restaurant %q: %w", restaurantSlug, domain.ErrNotFound)
	}

	if menuSlug != "" {
		m, err := s.store.GetMenuBySlug(ctx, r.ID, menuSlug)
		if err != nil {
			return nil, nil, fmt.Errorf("menu %q: %w", menuSlug, err)
		}
		if !m.Visible() {
			return nil, nil, fmt.Errorf("menu %q: %w", menuSlug, domain.ErrNotFound)
		}
		return r, m, nil
	}

	menus, err := s.store.ListMenus(ctx, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("restaurant %q: list menus: %w", restaurantSlug, err)
	}
	for i := range menus {
		if menus[i].Visible() {
			return r, &menus[i], nil
		}
	}
	return nil, nil, fmt.Errorf("restaurant %q: no published menu: %w", restaurantSlug, domain.ErrNotFound)
}

func (s *PublicService) build(ctx context.Context, r *restaurant.Restaurant, m *menu.Menu) (*menu.PublicMenu, error) {
	sections, err := s.store.ListSections(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("menu %q: sections: %w", m.Slug, err)
	}
	items, err := s.store.ListItems(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("menu %q: items: %w", m.Slug, err)
	}
	icons, err := s.store.ListIcons(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu %q: icons: %w", m.Slug, err)
	}
	codes := make(map[string]string, len(icons))
	for _, ic := range icons {
		codes[ic.ID] = ic.Code
	}

	slices.SortStableFunc(sections, func(a, b menu.Section) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
	slices.SortStableFunc(items, func(a, b menu.Item) int { return cmp.Compare(a.SortOrder, b.SortOrder) })

	bySection := make(map[string][]menu.PublicItem, len(sections))
	for i := range items {
		it := &items[i]
		if !it.Active {
			continue
		}
		pi := menu.PublicItem{Name: it.Name, Description: it.Description}
		for _, p := range it.Prices {
			pi.Prices = append(pi.Prices, menu.PublicPrice{Label: p.Label, Currency: p.Currency, AmountMinor: p.AmountMinor})
		}
		for _, id := range it.IconIDs {
			if code, ok := codes[id]; ok {
				pi.Icons = append(pi.Icons, code)
			}
		}
		bySection[it.SectionID] = append(bySection[it.SectionID], pi)
	}

	doc := &menu.PublicMenu{
		Restaurant: menu.PublicRestaurant{
			Name:    r.Name,
			Slug:    r.Slug,
			Phone:   r.Contact.Phone,
			Email:   r.Contact.Email,
			Address: r.Contact.Address,
			Website: r.Contact.Website,
		},
		Menu:     menu.PublicHeader{ID: m.ID, Name: m.Name, Slug: m.Slug},
		Sections: []menu.PublicSection{},
	}
	for i := range sections {
		sec := &sections[i]
		if !sec.IsActive || len(bySection[sec.ID]) == 0 {
			continue
		}
		doc.Sections = append(doc.Sections, menu.PublicSection{Name: sec.Name, Items: bySection[sec.ID]})
	}

	q, err := s.store.GetQRCode(ctx, m.ID)
	switch {
	case err == nil && q.IsActive:
		doc.QRCodeURL = "/r/" + r.Slug + "/qr.png?" + url.Values{"menu": {m.Slug}}.Encode()
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("menu %q: qr: %w", m.Slug, err)
	}
	return doc, nil
}
