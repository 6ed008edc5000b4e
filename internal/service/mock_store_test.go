package service

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/audit"
	"github.com/Strob0t/MenuForge/internal/domain/icon"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/domain/qrcode"
	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/domain/slug"
	"github.com/Strob0t/MenuForge/internal/domain/tenant"
	"github.com/Strob0t/MenuForge/internal/domain/translation"
	"github.com/Strob0t/MenuForge/internal/domain/user"
	"github.com/Strob0t/MenuForge/internal/port/database"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockData is the state InTx snapshots and restores.
type mockData struct {
	tenants      map[string]tenant.Tenant
	users        map[string]user.User
	restaurants  map[string]restaurant.Restaurant
	menus        map[string]menu.Menu
	sections     map[string]menu.Section
	items        map[string]menu.Item
	prices       map[string]menu.Price
	icons        map[string]icon.Icon
	itemIcons    map[[2]string]bool
	translations map[string]translation.Translation
	qrcodes      map[string]qrcode.QRCode // keyed by menu id
	audit        []audit.Log
	seq          int
}

func (d *mockData) clone() *mockData {
	return &mockData{
		tenants:      maps.Clone(d.tenants),
		users:        maps.Clone(d.users),
		restaurants:  maps.Clone(d.restaurants),
		menus:        maps.Clone(d.menus),
		sections:     maps.Clone(d.sections),
		items:        maps.Clone(d.items),
		prices:       maps.Clone(d.prices),
		icons:        maps.Clone(d.icons),
		itemIcons:    maps.Clone(d.itemIcons),
		translations: maps.Clone(d.translations),
		qrcodes:      maps.Clone(d.qrcodes),
		audit:        slices.Clone(d.audit),
		seq:          d.seq,
	}
}

// mockStore is an in-memory database.Store. It enforces the uniqueness and
// tenant-link rules of the schema and supports nested InTx with rollback.
type mockStore struct {
	mu   *sync.Mutex
	data *mockData

	// Error hooks: set these to inject failures.
	appendAuditErr   error
	replaceQRCodeErr error
	createItemErr    error
	createPriceErr   error
	inTxCalls        int
}

func newMockStore() *mockStore {
	return &mockStore{
		mu: &sync.Mutex{},
		data: &mockData{
			tenants:      map[string]tenant.Tenant{},
			users:        map[string]user.User{},
			restaurants:  map[string]restaurant.Restaurant{},
			menus:        map[string]menu.Menu{},
			sections:     map[string]menu.Section{},
			items:        map[string]menu.Item{},
			prices:       map[string]menu.Price{},
			icons:        map[string]icon.Icon{},
			itemIcons:    map[[2]string]bool{},
			translations: map[string]translation.Translation{},
			qrcodes:      map[string]qrcode.QRCode{},
		},
	}
}

func (m *mockStore) tick() time.Time {
	m.data.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.data.seq) * time.Second)
}

// InTx snapshots the data and restores it when fn fails. The lock is held
// for the outermost call only, so concurrent runs serialize.
func (m *mockStore) InTx(ctx context.Context, fn func(tx database.Store) error) (err error) {
	m.inTxCalls++
	snapshot := m.data.clone()
	defer func() {
		if p := recover(); p != nil {
			m.data = snapshot
			panic(p)
		}
		if err != nil {
			m.data = snapshot
		}
	}()
	return fn(m)
}

// lockedStore serializes top-level access from concurrent goroutines.
type lockedStore struct {
	*mockStore
}

func (l lockedStore) InTx(ctx context.Context, fn func(tx database.Store) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mockStore.InTx(ctx, fn)
}

// --- tenants ---

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	t.CreatedAt = m.tick()
	t.UpdatedAt = t.CreatedAt
	m.data.tenants[t.ID] = *t
	return nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	t, ok := m.data.tenants[id]
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	return slices.Collect(maps.Values(m.data.tenants)), nil
}

func (m *mockStore) UpdateTenantStatus(_ context.Context, id string, status tenant.Status) error {
	t, ok := m.data.tenants[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = m.tick()
	m.data.tenants[id] = t
	return nil
}

// --- users ---

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	if u.Role == user.RoleSuperAdmin && u.TenantID != nil {
		return fmt.Errorf("users_super_admin_platform_chk: %w", domain.ErrValidation)
	}
	if u.TenantID != nil {
		if _, ok := m.data.tenants[*u.TenantID]; !ok {
			return fmt.Errorf("users tenant: %w", domain.ErrNotFound)
		}
	}
	for _, other := range m.data.users {
		if strings.EqualFold(other.Email, u.Email) && sameScope(other.TenantID, u.TenantID) {
			return fmt.Errorf("email %s: %w", u.Email, domain.ErrDuplicateIdentity)
		}
	}
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	m.data.users[u.ID] = *u
	return nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string, tenantID *string) (*user.User, error) {
	for _, u := range m.data.users {
		if strings.EqualFold(u.Email, email) && sameScope(u.TenantID, tenantID) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListUsers(_ context.Context, tenantID string) ([]user.User, error) {
	var out []user.User
	for _, u := range m.data.users {
		if tenantID == "" || (u.TenantID != nil && *u.TenantID == tenantID) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b user.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// --- restaurants ---

func (m *mockStore) SlugTaken(_ context.Context, scope slug.Scope, s string) (bool, error) {
	switch scope.Kind {
	case slug.KindRestaurant:
		for _, r := range m.data.restaurants {
			if r.Slug == s {
				return true, nil
			}
		}
	case slug.KindMenu:
		for _, mn := range m.data.menus {
			if mn.RestaurantID == scope.RestaurantID && mn.Slug == s {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockStore) CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) error {
	if _, ok := m.data.tenants[r.TenantID]; !ok {
		return fmt.Errorf("restaurants tenant: %w", domain.ErrNotFound)
	}
	if taken, _ := m.SlugTaken(ctx, slug.RestaurantScope(), r.Slug); taken {
		return fmt.Errorf("restaurants_slug_uq: %w", domain.ErrSlugConflict)
	}
	r.CreatedAt = m.tick()
	r.UpdatedAt = r.CreatedAt
	m.data.restaurants[r.ID] = *r
	return nil
}

func (m *mockStore) GetRestaurant(_ context.Context, id string) (*restaurant.Restaurant, error) {
	r, ok := m.data.restaurants[id]
	if !ok {
		return nil, fmt.Errorf("restaurant %s: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

func (m *mockStore) GetRestaurantBySlug(_ context.Context, s string) (*restaurant.Restaurant, error) {
	for _, r := range m.data.restaurants {
		if r.Slug == s {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("restaurant %q: %w", s, domain.ErrNotFound)
}

func (m *mockStore) ListRestaurants(_ context.Context, tenantID string) ([]restaurant.Restaurant, error) {
	var out []restaurant.Restaurant
	for _, r := range m.data.restaurants {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b restaurant.Restaurant) int { return cmp.Compare(a.Slug, b.Slug) })
	return out, nil
}

func (m *mockStore) UpdateRestaurantSlug(ctx context.Context, id, s string) error {
	r, ok := m.data.restaurants[id]
	if !ok {
		return domain.ErrNotFound
	}
	if taken, _ := m.SlugTaken(ctx, slug.RestaurantScope(), s); taken {
		return fmt.Errorf("restaurants_slug_uq: %w", domain.ErrSlugConflict)
	}
	r.Slug = s
	r.UpdatedAt = m.tick()
	m.data.restaurants[id] = r
	return nil
}

func (m *mockStore) DeactivateRestaurant(_ context.Context, id string) error {
	r, ok := m.data.restaurants[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.IsActive = false
	r.UpdatedAt = m.tick()
	m.data.restaurants[id] = r
	return nil
}

// --- menus and sections ---

func (m *mockStore) CreateMenu(ctx context.Context, mn *menu.Menu) error {
	r, ok := m.data.restaurants[mn.RestaurantID]
	if !ok {
		return fmt.Errorf("menus restaurant: %w", domain.ErrNotFound)
	}
	if r.TenantID != mn.TenantID {
		return fmt.Errorf("menus_restaurant_tenant_fk: %w", domain.ErrTenantMismatch)
	}
	if taken, _ := m.SlugTaken(ctx, slug.MenuScope(mn.RestaurantID), mn.Slug); taken {
		return fmt.Errorf("menus_restaurant_slug_uq: %w", domain.ErrSlugConflict)
	}
	mn.CreatedAt = m.tick()
	mn.UpdatedAt = mn.CreatedAt
	m.data.menus[mn.ID] = *mn
	return nil
}

func (m *mockStore) GetMenu(_ context.Context, id string) (*menu.Menu, error) {
	mn, ok := m.data.menus[id]
	if !ok {
		return nil, fmt.Errorf("menu %s: %w", id, domain.ErrNotFound)
	}
	return &mn, nil
}

func (m *mockStore) LockMenu(ctx context.Context, id string) (*menu.Menu, error) {
	return m.GetMenu(ctx, id)
}

func (m *mockStore) GetMenuBySlug(_ context.Context, restaurantID, s string) (*menu.Menu, error) {
	for _, mn := range m.data.menus {
		if mn.RestaurantID == restaurantID && mn.Slug == s {
			return &mn, nil
		}
	}
	return nil, fmt.Errorf("menu %q: %w", s, domain.ErrNotFound)
}

func (m *mockStore) ListMenus(_ context.Context, restaurantID string) ([]menu.Menu, error) {
	var out []menu.Menu
	for _, mn := range m.data.menus {
		if mn.RestaurantID == restaurantID {
			out = append(out, mn)
		}
	}
	slices.SortFunc(out, func(a, b menu.Menu) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (m *mockStore) UpdateMenuSlug(ctx context.Context, id, s string) error {
	mn, ok := m.data.menus[id]
	if !ok {
		return domain.ErrNotFound
	}
	if taken, _ := m.SlugTaken(ctx, slug.MenuScope(mn.RestaurantID), s); taken {
		return fmt.Errorf("menus_restaurant_slug_uq: %w", domain.ErrSlugConflict)
	}
	mn.Slug = s
	mn.UpdatedAt = m.tick()
	m.data.menus[id] = mn
	return nil
}

func (m *mockStore) UpdateMenuStatus(_ context.Context, id string, status menu.Status) error {
	mn, ok := m.data.menus[id]
	if !ok {
		return domain.ErrNotFound
	}
	mn.Status = status
	mn.IsActive = status != menu.StatusArchived
	mn.UpdatedAt = m.tick()
	m.data.menus[id] = mn
	return nil
}

func (m *mockStore) CreateSection(_ context.Context, s *menu.Section) error {
	mn, ok := m.data.menus[s.MenuID]
	if !ok {
		return fmt.Errorf("sections menu: %w", domain.ErrNotFound)
	}
	if mn.TenantID != s.TenantID {
		return fmt.Errorf("sections_menu_tenant_fk: %w", domain.ErrTenantMismatch)
	}
	for _, other := range m.data.sections {
		if other.MenuID == s.MenuID && other.SortOrder == s.SortOrder {
			return fmt.Errorf("sections_menu_order_uq: %w", domain.ErrConflict)
		}
	}
	m.data.sections[s.ID] = *s
	return nil
}

func (m *mockStore) GetSection(_ context.Context, id string) (*menu.Section, error) {
	s, ok := m.data.sections[id]
	if !ok {
		return nil, fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (m *mockStore) ListSections(_ context.Context, menuID string) ([]menu.Section, error) {
	var out []menu.Section
	for _, s := range m.data.sections {
		if s.MenuID == menuID {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b menu.Section) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
	return out, nil
}

func (m *mockStore) SetSectionOrder(_ context.Context, menuID string, orderedIDs []string) error {
	for i, id := range orderedIDs {
		s, ok := m.data.sections[id]
		if !ok || s.MenuID != menuID {
			return fmt.Errorf("section %s: %w", id, domain.ErrTenantMismatch)
		}
		s.SortOrder = i + 1
		m.data.sections[id] = s
	}
	return nil
}

// --- items ---

func (m *mockStore) CreateItem(_ context.Context, it *menu.Item) error {
	if m.createItemErr != nil {
		return m.createItemErr
	}
	s, ok := m.data.sections[it.SectionID]
	if !ok {
		return fmt.Errorf("items section: %w", domain.ErrNotFound)
	}
	if s.MenuID != it.MenuID || s.TenantID != it.TenantID {
		return fmt.Errorf("items_section_menu_tenant_fk: %w", domain.ErrTenantMismatch)
	}
	it.CreatedAt = m.tick()
	stored := *it
	stored.Prices, stored.IconIDs = nil, nil
	m.data.items[it.ID] = stored
	return nil
}

func (m *mockStore) CreatePrice(_ context.Context, p *menu.Price) error {
	if m.createPriceErr != nil {
		return m.createPriceErr
	}
	it, ok := m.data.items[p.ItemID]
	if !ok {
		return fmt.Errorf("prices item: %w", domain.ErrNotFound)
	}
	if it.TenantID != p.TenantID {
		return fmt.Errorf("prices_item_tenant_fk: %w", domain.ErrTenantMismatch)
	}
	if p.AmountMinor < 0 {
		return fmt.Errorf("prices_amount_chk: %w", domain.ErrValidation)
	}
	for _, other := range m.data.prices {
		if other.ItemID == p.ItemID && other.Label == p.Label {
			return fmt.Errorf("prices_item_label_uq: %w", domain.ErrConflict)
		}
	}
	m.data.prices[p.ID] = *p
	return nil
}

func (m *mockStore) fill(it menu.Item) menu.Item {
	it.Prices, it.IconIDs = nil, nil
	for _, p := range m.data.prices {
		if p.ItemID == it.ID {
			it.Prices = append(it.Prices, p)
		}
	}
	slices.SortFunc(it.Prices, func(a, b menu.Price) int { return cmp.Compare(a.Label, b.Label) })
	for k := range m.data.itemIcons {
		if k[0] == it.ID {
			it.IconIDs = append(it.IconIDs, k[1])
		}
	}
	slices.Sort(it.IconIDs)
	return it
}

func (m *mockStore) GetItem(_ context.Context, id string) (*menu.Item, error) {
	it, ok := m.data.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	it = m.fill(it)
	return &it, nil
}

func (m *mockStore) ListItems(_ context.Context, menuID string) ([]menu.Item, error) {
	var out []menu.Item
	for _, it := range m.data.items {
		if it.MenuID == menuID {
			out = append(out, m.fill(it))
		}
	}
	slices.SortFunc(out, func(a, b menu.Item) int {
		sa, sb := m.data.sections[a.SectionID], m.data.sections[b.SectionID]
		if c := cmp.Compare(sa.SortOrder, sb.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return out, nil
}

func (m *mockStore) SetItemActive(_ context.Context, id string, active bool) error {
	it, ok := m.data.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.Active = active
	m.data.items[id] = it
	return nil
}

// --- icons ---

func (m *mockStore) UpsertIcon(_ context.Context, i *icon.Icon) error {
	for _, existing := range m.data.icons {
		if existing.Code == i.Code {
			i.ID = existing.ID
			m.data.icons[existing.ID] = *i
			return nil
		}
	}
	m.data.icons[i.ID] = *i
	return nil
}

func (m *mockStore) ListIcons(_ context.Context) ([]icon.Icon, error) {
	out := slices.Collect(maps.Values(m.data.icons))
	slices.SortFunc(out, func(a, b icon.Icon) int { return cmp.Compare(a.Code, b.Code) })
	return out, nil
}

func (m *mockStore) TagItem(_ context.Context, itemID, iconID string) error {
	if _, ok := m.data.items[itemID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := m.data.icons[iconID]; !ok {
		return domain.ErrNotFound
	}
	m.data.itemIcons[[2]string{itemID, iconID}] = true
	return nil
}

// --- translations ---

func (m *mockStore) CreateTranslation(_ context.Context, t *translation.Translation) error {
	for _, other := range m.data.translations {
		if other.TenantID == t.TenantID && other.Locale == t.Locale && other.EntityType == t.EntityType &&
			other.EntityID == t.EntityID && other.Key == t.Key {
			return fmt.Errorf("translations_key_uq: %w", domain.ErrConflict)
		}
	}
	m.data.translations[t.ID] = *t
	return nil
}

func (m *mockStore) ListTranslations(_ context.Context, tenantID string, et translation.EntityType, entityID string) ([]translation.Translation, error) {
	var out []translation.Translation
	for _, t := range m.data.translations {
		if t.TenantID == tenantID && (et == "" || t.EntityType == et) && (entityID == "" || t.EntityID == entityID) {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- qr codes ---

func (m *mockStore) ReplaceQRCode(_ context.Context, q *qrcode.QRCode) error {
	if m.replaceQRCodeErr != nil {
		return m.replaceQRCodeErr
	}
	mn, ok := m.data.menus[q.MenuID]
	if !ok {
		return fmt.Errorf("qr menu: %w", domain.ErrNotFound)
	}
	if mn.TenantID != q.TenantID {
		return fmt.Errorf("qr_codes_menu_tenant_fk: %w", domain.ErrTenantMismatch)
	}
	m.data.qrcodes[q.MenuID] = *q
	return nil
}

func (m *mockStore) GetQRCode(_ context.Context, menuID string) (*qrcode.QRCode, error) {
	q, ok := m.data.qrcodes[menuID]
	if !ok {
		return nil, fmt.Errorf("qr for menu %s: %w", menuID, domain.ErrNotFound)
	}
	return &q, nil
}

func (m *mockStore) DeactivateQRCode(_ context.Context, menuID string) error {
	q, ok := m.data.qrcodes[menuID]
	if !ok {
		return domain.ErrNotFound
	}
	q.IsActive = false
	m.data.qrcodes[menuID] = q
	return nil
}

// --- audit ---

func (m *mockStore) AppendAudit(_ context.Context, l *audit.Log) error {
	if m.appendAuditErr != nil {
		return m.appendAuditErr
	}
	if l.ActorUserID != nil {
		u, ok := m.data.users[*l.ActorUserID]
		if !ok {
			return fmt.Errorf("audit_actor_user_fk: %w", domain.ErrNotFound)
		}
		// Platform users may act on any tenant.
		if u.TenantID != nil && *u.TenantID != l.TenantID {
			return fmt.Errorf("audit_actor_tenant_fk: %w", domain.ErrTenantMismatch)
		}
	}
	m.data.audit = append(m.data.audit, *l)
	return nil
}

func (m *mockStore) ListAudit(_ context.Context, tenantID string, limit int) ([]audit.Log, error) {
	var out []audit.Log
	for i := len(m.data.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if m.data.audit[i].TenantID == tenantID {
			out = append(out, m.data.audit[i])
		}
	}
	return out, nil
}

// --- helpers for assertions ---

func (m *mockStore) countItems(menuID string) int {
	n := 0
	for _, it := range m.data.items {
		if it.MenuID == menuID {
			n++
		}
	}
	return n
}
