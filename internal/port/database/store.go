// Package database defines the catalog store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/MenuForge/internal/domain/audit"
	"github.com/Strob0t/MenuForge/internal/domain/icon"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/domain/qrcode"
	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/domain/slug"
	"github.com/Strob0t/MenuForge/internal/domain/tenant"
	"github.com/Strob0t/MenuForge/internal/domain/translation"
	"github.com/Strob0t/MenuForge/internal/domain/user"
)

// Store is the port interface for catalog persistence.
//
// InTx runs fn against a session bound to one transaction. Called on a
// session that is already transactional it opens a savepoint, so a nested
// failure rolls back only the nested work. The session commits when fn
// returns nil and rolls back on error or panic.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	TenantStore
	UserStore
	RestaurantStore
	MenuStore
	ItemStore
	IconStore
	TranslationStore
	QRCodeStore
	AuditStore
}

// TenantStore persists tenants. Tenants are never hard-deleted.
type TenantStore interface {
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	UpdateTenantStatus(ctx context.Context, id string, status tenant.Status) error
}

// UserStore persists users. A nil tenantID addresses the platform scope.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByEmail(ctx context.Context, email string, tenantID *string) (*user.User, error)
	// ListUsers lists users of a tenant, or every user when tenantID is empty.
	ListUsers(ctx context.Context, tenantID string) ([]user.User, error)
}

// RestaurantStore persists restaurants and answers slug availability.
type RestaurantStore interface {
	slug.Checker

	CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) error
	GetRestaurant(ctx context.Context, id string) (*restaurant.Restaurant, error)
	GetRestaurantBySlug(ctx context.Context, slug string) (*restaurant.Restaurant, error)
	ListRestaurants(ctx context.Context, tenantID string) ([]restaurant.Restaurant, error)
	UpdateRestaurantSlug(ctx context.Context, id, slug string) error
	DeactivateRestaurant(ctx context.Context, id string) error
}

// MenuStore persists menus and their sections.
type MenuStore interface {
	CreateMenu(ctx context.Context, m *menu.Menu) error
	GetMenu(ctx context.Context, id string) (*menu.Menu, error)
	// LockMenu reads a menu and holds a row lock until the session ends.
	LockMenu(ctx context.Context, id string) (*menu.Menu, error)
	GetMenuBySlug(ctx context.Context, restaurantID, slug string) (*menu.Menu, error)
	ListMenus(ctx context.Context, restaurantID string) ([]menu.Menu, error)
	UpdateMenuSlug(ctx context.Context, id, slug string) error
	UpdateMenuStatus(ctx context.Context, id string, status menu.Status) error

	CreateSection(ctx context.Context, s *menu.Section) error
	GetSection(ctx context.Context, id string) (*menu.Section, error)
	ListSections(ctx context.Context, menuID string) ([]menu.Section, error)
	// SetSectionOrder assigns sort orders 1..n following orderedIDs.
	SetSectionOrder(ctx context.Context, menuID string, orderedIDs []string) error
}

// ItemStore persists items and their prices.
type ItemStore interface {
	CreateItem(ctx context.Context, it *menu.Item) error
	CreatePrice(ctx context.Context, p *menu.Price) error
	GetItem(ctx context.Context, id string) (*menu.Item, error)
	// ListItems returns the menu's items in section then item order, with
	// prices and icon ids populated.
	ListItems(ctx context.Context, menuID string) ([]menu.Item, error)
	SetItemActive(ctx context.Context, id string, active bool) error
}

// IconStore persists the shared icon catalog and item tags.
type IconStore interface {
	UpsertIcon(ctx context.Context, i *icon.Icon) error
	ListIcons(ctx context.Context) ([]icon.Icon, error)
	TagItem(ctx context.Context, itemID, iconID string) error
}

// TranslationStore persists translations.
type TranslationStore interface {
	CreateTranslation(ctx context.Context, t *translation.Translation) error
	ListTranslations(ctx context.Context, tenantID string, entityType translation.EntityType, entityID string) ([]translation.Translation, error)
}

// QRCodeStore persists the single QR artifact of each menu.
type QRCodeStore interface {
	// ReplaceQRCode removes any prior row for the menu and inserts q.
	ReplaceQRCode(ctx context.Context, q *qrcode.QRCode) error
	GetQRCode(ctx context.Context, menuID string) (*qrcode.QRCode, error)
	DeactivateQRCode(ctx context.Context, menuID string) error
}

// AuditStore appends audit rows. There is no update or delete surface.
type AuditStore interface {
	AppendAudit(ctx context.Context, l *audit.Log) error
	ListAudit(ctx context.Context, tenantID string, limit int) ([]audit.Log, error)
}
