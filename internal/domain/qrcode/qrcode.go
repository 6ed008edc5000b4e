// Package qrcode defines the QR artifact stored as a dependent record of a menu.
package qrcode

import (
	"strings"
	"time"
)

// QRCode binds a menu to an encoded image of its public URL. A menu has at most
// one row; regeneration replaces it with a new id.
type QRCode struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	MenuID     string    `json:"menu_id"`
	URL        string    `json:"url"`
	QRImageURL string    `json:"qr_image_url"` // data:image/png;base64,...
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublicURL derives the canonical public URL for a restaurant's menu page.
func PublicURL(baseURL, restaurantSlug string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + restaurantSlug
}

// MenuURL derives the direct URL of a specific menu.
func MenuURL(baseURL, restaurantSlug, menuSlug string) string {
	return PublicURL(baseURL, restaurantSlug) + "/" + menuSlug
}
