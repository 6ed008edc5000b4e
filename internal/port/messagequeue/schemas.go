package messagequeue

import "time"

// TenantCreatedPayload is the schema for catalog.tenant.created messages.
type TenantCreatedPayload struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Plan     string `json:"plan"`
}

// RestaurantCreatedPayload is the schema for catalog.restaurant.created messages.
type RestaurantCreatedPayload struct {
	TenantID     string   `json:"tenant_id"`
	RestaurantID string   `json:"restaurant_id"`
	Slug         string   `json:"slug"`
	MenuIDs      []string `json:"menu_ids"`
}

// CatalogChangedPayload is the schema for catalog.changed messages. Consumers
// drop the listed public cache keys.
type CatalogChangedPayload struct {
	TenantID        string   `json:"tenant_id"`
	RestaurantSlugs []string `json:"restaurant_slugs"`
	Keys            []string `json:"keys"`
	Reason          string   `json:"reason"`
}

// QRGeneratedPayload is the schema for catalog.qr.generated messages.
type QRGeneratedPayload struct {
	TenantID string `json:"tenant_id"`
	MenuID   string `json:"menu_id"`
	QRCodeID string `json:"qr_code_id"`
	URL      string `json:"url"`
}

// AuditPayload is the schema for catalog.audit messages.
type AuditPayload struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ActorUserID *string   `json:"actor_user_id,omitempty"`
	Action      string    `json:"action"`
	Entity      string    `json:"entity"`
	EntityID    string    `json:"entity_id"`
	CreatedAt   time.Time `json:"created_at"`
}
