package menu

// PublicMenu is the read model served to unauthenticated callers. It only
// contains active, published content.
type PublicMenu struct {
	Restaurant PublicRestaurant `json:"restaurant"`
	Menu       PublicHeader     `json:"menu"`
	Sections   []PublicSection  `json:"sections"`
	QRCodeURL  string           `json:"qr_code_url,omitempty"`
}

// PublicRestaurant is the public projection of a restaurant.
type PublicRestaurant struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Website string `json:"website,omitempty"`
}

// PublicHeader is the public projection of a menu.
type PublicHeader struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PublicSection lists active items in display order.
type PublicSection struct {
	Name  string       `json:"name"`
	Items []PublicItem `json:"items"`
}

// PublicItem is an active item with its prices and icon codes.
type PublicItem struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Prices      []PublicPrice `json:"prices"`
	Icons       []string      `json:"icons,omitempty"`
}

// PublicPrice is a price as shown to guests.
type PublicPrice struct {
	Label       string `json:"label"`
	Currency    string `json:"currency"`
	AmountMinor int64  `json:"amount_minor"`
}
