// Package translation defines localized strings attached to catalog entities.
package translation

import (
	"errors"
	"fmt"
	"regexp"
)

// EntityType names the kind of entity a translation refers to.
type EntityType string

const (
	EntityRestaurant EntityType = "restaurant"
	EntityMenu       EntityType = "menu"
	EntitySection    EntityType = "section"
	EntityItem       EntityType = "item"
)

// ValidEntityTypes is the set of translatable entity types.
var ValidEntityTypes = map[EntityType]bool{
	EntityRestaurant: true,
	EntityMenu:       true,
	EntitySection:    true,
	EntityItem:       true,
}

// Translation loosely references a tenant-scoped entity by (EntityType, EntityID).
// (TenantID, Locale, EntityType, EntityID, Key) is unique.
type Translation struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Locale     string     `json:"locale"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Key        string     `json:"key"`
	Value      string     `json:"value"`
}

var (
	localeRegex = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
	keyRegex    = regexp.MustCompile(`^[a-z][a-z0-9_.]{0,63}$`)
)

// Validate checks the translation fields.
func (t *Translation) Validate() error {
	if t.TenantID == "" || t.EntityID == "" {
		return errors.New("translation tenant and entity are required")
	}
	if !ValidEntityTypes[t.EntityType] {
		return fmt.Errorf("invalid translation entity type %q", t.EntityType)
	}
	if !localeRegex.MatchString(t.Locale) {
		return fmt.Errorf("invalid locale %q", t.Locale)
	}
	if !keyRegex.MatchString(t.Key) {
		return fmt.Errorf("invalid translation key %q", t.Key)
	}
	if t.Value == "" {
		return errors.New("translation value is required")
	}
	return nil
}
