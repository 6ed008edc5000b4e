// Package provision defines the high-level description of a tenant graph and
// the result of provisioning it.
package provision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/domain/tenant"
	"github.com/Strob0t/MenuForge/internal/domain/translation"
	"github.com/Strob0t/MenuForge/internal/domain/user"
)

// Description is a complete tenant graph: tenant, users, one restaurant with
// its menus, and optional translations.
type Description struct {
	Tenant       tenant.CreateRequest `yaml:"tenant"`
	Users        []user.CreateRequest `yaml:"users"`
	Actor        string               `yaml:"actor"` // email of the audit actor; defaults to the first ADMIN
	Restaurant   *RestaurantSpec      `yaml:"restaurant"`
	Translations []TranslationSpec    `yaml:"translations"`
}

// RestaurantSpec describes the restaurant and its menus.
type RestaurantSpec struct {
	restaurant.CreateRequest `yaml:",inline"`
	Menus                    []MenuSpec `yaml:"menus"`
}

// MenuSpec describes a menu and its sections in display order.
type MenuSpec struct {
	Name     string        `yaml:"name"`
	Slug     string        `yaml:"slug"`
	Status   string        `yaml:"status"`
	Sections []SectionSpec `yaml:"sections"`
}

// SectionSpec describes a section. Sort order follows list position.
type SectionSpec struct {
	Name  string     `yaml:"name"`
	Items []ItemSpec `yaml:"items"`
}

// ItemSpec describes an item with its prices and icon codes.
type ItemSpec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Prices      []PriceSpec `yaml:"prices"`
	Icons       []string    `yaml:"icons"`
}

// PriceSpec is a price in major units. Currency defaults to the tenant currency.
type PriceSpec struct {
	Label    string `yaml:"label"`
	Currency string `yaml:"currency"`
	Amount   Amount `yaml:"amount"`
}

// TranslationSpec targets the restaurant, a menu (by slug), or a section or
// item (by name within a menu).
type TranslationSpec struct {
	Entity translation.EntityType `yaml:"entity"`
	Menu   string                 `yaml:"menu"`
	Name   string                 `yaml:"name"`
	Locale string                 `yaml:"locale"`
	Key    string                 `yaml:"key"`
	Value  string                 `yaml:"value"`
}

// ActorEmail returns the normalized email of the audit actor.
func (d *Description) ActorEmail() string {
	if d.Actor != "" {
		return user.NormalizeEmail(d.Actor)
	}
	for _, u := range d.Users {
		if u.Role == user.RoleAdmin {
			return user.NormalizeEmail(u.Email)
		}
	}
	return ""
}

// Validate checks the description structure. Field-level validation of each
// entity happens in the orchestrator before the corresponding write.
func (d *Description) Validate() error {
	if strings.TrimSpace(d.Tenant.Name) == "" {
		return errors.New("tenant name is required")
	}
	if d.ActorEmail() == "" {
		return errors.New("at least one ADMIN user is required")
	}
	seen := make(map[string]bool, len(d.Users))
	actorFound := false
	for i, u := range d.Users {
		if u.Role == user.RoleSuperAdmin {
			return fmt.Errorf("users[%d]: SUPER_ADMIN cannot be provisioned inside a tenant", i)
		}
		email := user.NormalizeEmail(u.Email)
		if seen[email] {
			return fmt.Errorf("users[%d]: duplicate email %q", i, email)
		}
		seen[email] = true
		if email == d.ActorEmail() {
			actorFound = true
		}
	}
	if !actorFound {
		return fmt.Errorf("actor %q is not one of the provisioned users", d.Actor)
	}
	if d.Restaurant == nil {
		if len(d.Translations) > 0 {
			return errors.New("translations require a restaurant")
		}
		return nil
	}
	for mi, m := range d.Restaurant.Menus {
		for si, s := range m.Sections {
			for ii, it := range s.Items {
				if len(it.Prices) == 0 {
					return fmt.Errorf("menus[%d].sections[%d].items[%d] %q: at least one price is required", mi, si, ii, it.Name)
				}
			}
		}
	}
	for i, tr := range d.Translations {
		if !translation.ValidEntityTypes[tr.Entity] {
			return fmt.Errorf("translations[%d]: invalid entity %q", i, tr.Entity)
		}
		if tr.Entity != translation.EntityRestaurant && tr.Menu == "" {
			return fmt.Errorf("translations[%d]: %s translation requires a menu", i, tr.Entity)
		}
	}
	return nil
}

// Counts summarizes the rows created by a run.
type Counts struct {
	Users        int `json:"users"`
	Menus        int `json:"menus"`
	Sections     int `json:"sections"`
	Items        int `json:"items"`
	Prices       int `json:"prices"`
	IconTags     int `json:"icon_tags"`
	QRCodes      int `json:"qr_codes"`
	Translations int `json:"translations"`
	AuditLogs    int `json:"audit_logs"`
}

// Result reports the identifiers produced by a run and any non-fatal warnings.
type Result struct {
	TenantID     string   `json:"tenant_id"`
	UserIDs      []string `json:"user_ids"`
	ActorID      string   `json:"actor_id"`
	RestaurantID string   `json:"restaurant_id,omitempty"`
	MenuIDs      []string `json:"menu_ids,omitempty"`
	Counts       Counts   `json:"counts"`
	Warnings     []error  `json:"-"`
}

// Warn appends a non-fatal warning.
func (r *Result) Warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

// WarningsErr joins all warnings, or returns nil when there are none.
func (r *Result) WarningsErr() error {
	return errors.Join(r.Warnings...)
}
