// Package audit defines append-only records of administrative mutations.
package audit

import (
	"encoding/json"
	"time"
)

// Action names an audited administrative mutation.
type Action string

const (
	ActionRestaurantCreate     Action = "restaurant.create"
	ActionRestaurantSlugChange Action = "restaurant.slug_change"
	ActionRestaurantDeactivate Action = "restaurant.deactivate"
	ActionMenuCreate           Action = "menu.create"
	ActionMenuSlugChange       Action = "menu.slug_change"
	ActionMenuStatusChange     Action = "menu.status_change"
	ActionTenantStatusChange   Action = "tenant.status_change"
)

// Entry is the input to the recorder.
type Entry struct {
	TenantID    string
	ActorUserID *string // nil for system actions
	Action      Action
	Entity      string
	EntityID    string
	Payload     map[string]any
}

// Log is a persisted audit row. Rows are never updated or deleted.
type Log struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	ActorUserID *string         `json:"actor_user_id,omitempty"`
	Action      Action          `json:"action"`
	Entity      string          `json:"entity"`
	EntityID    string          `json:"entity_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
