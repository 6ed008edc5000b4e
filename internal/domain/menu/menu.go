// Package menu defines menus, their ordered sections, items and item prices.
package menu

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Status is the publication state of a menu.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// ValidStatuses is the set of all valid menu statuses.
var ValidStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusArchived:  true,
}

// Menu belongs to a restaurant. Its slug is unique within that restaurant.
type Menu struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Status       Status    `json:"status"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Visible reports whether unauthenticated callers may see the menu.
func (m *Menu) Visible() bool {
	return m.IsActive && m.Status == StatusPublished
}

// Section is an ordered grouping of items within a menu.
type Section struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	MenuID    string `json:"menu_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

// Item is a dish or drink bound to exactly one section of its menu.
type Item struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	MenuID      string    `json:"menu_id"`
	SectionID   string    `json:"section_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	SortOrder   int       `json:"sort_order"`
	Prices      []Price   `json:"prices,omitempty"`
	IconIDs     []string  `json:"icon_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Price is one priced variant of an item, e.g. "Regular" or "Half".
// AmountMinor is expressed in the currency's minor unit.
type Price struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	ItemID      string `json:"item_id"`
	Currency    string `json:"currency"`
	Label       string `json:"label"`
	AmountMinor int64  `json:"amount_minor"`
}

// CreateRequest is the input for creating a menu.
type CreateRequest struct {
	TenantID     string `json:"tenant_id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Status       Status `json:"status"`
}

// SlugCandidate returns the requested slug or, if empty, the name.
func (r *CreateRequest) SlugCandidate() string {
	if r.Slug != "" {
		return r.Slug
	}
	return r.Name
}

// Validate checks required fields. An empty status defaults to DRAFT.
func (r *CreateRequest) Validate() error {
	if r.TenantID == "" || r.RestaurantID == "" {
		return errors.New("menu tenant and restaurant are required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("menu name is required")
	}
	if r.Status == "" {
		r.Status = StatusDraft
	}
	if !ValidStatuses[r.Status] {
		return fmt.Errorf("invalid menu status %q", r.Status)
	}
	return nil
}

// CreateSectionRequest is the input for creating a section.
type CreateSectionRequest struct {
	TenantID  string `json:"tenant_id"`
	MenuID    string `json:"menu_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// Validate checks required fields.
func (r *CreateSectionRequest) Validate() error {
	if r.TenantID == "" || r.MenuID == "" {
		return errors.New("section tenant and menu are required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("section name is required")
	}
	if r.SortOrder < 1 {
		return fmt.Errorf("section sort order must be >= 1, got %d", r.SortOrder)
	}
	return nil
}

// PriceInput is a price to create alongside an item.
type PriceInput struct {
	Currency    string `json:"currency"`
	Label       string `json:"label"`
	AmountMinor int64  `json:"amount_minor"`
}

// CreateItemRequest creates an item together with its prices. An item is not
// complete without at least one price.
type CreateItemRequest struct {
	TenantID    string       `json:"tenant_id"`
	MenuID      string       `json:"menu_id"`
	SectionID   string       `json:"section_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	SortOrder   int          `json:"sort_order"`
	Prices      []PriceInput `json:"prices"`
}

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks the item and its prices.
func (r *CreateItemRequest) Validate() error {
	if r.TenantID == "" || r.MenuID == "" || r.SectionID == "" {
		return errors.New("item tenant, menu and section are required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("item name is required")
	}
	if len(r.Prices) == 0 {
		return fmt.Errorf("item %q requires at least one price", r.Name)
	}
	labels := make(map[string]bool, len(r.Prices))
	for _, p := range r.Prices {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("item %q: %w", r.Name, err)
		}
		if labels[p.Label] {
			return fmt.Errorf("item %q: duplicate price label %q", r.Name, p.Label)
		}
		labels[p.Label] = true
	}
	return nil
}

// Validate checks a single price.
func (p *PriceInput) Validate() error {
	if !currencyRegex.MatchString(p.Currency) {
		return fmt.Errorf("invalid price currency %q", p.Currency)
	}
	if p.AmountMinor < 0 {
		return fmt.Errorf("price amount must be non-negative, got %d", p.AmountMinor)
	}
	if strings.TrimSpace(p.Label) == "" {
		return errors.New("price label is required")
	}
	return nil
}
