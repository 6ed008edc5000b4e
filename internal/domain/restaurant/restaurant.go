// Package restaurant defines the restaurant domain model.
package restaurant

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Restaurant is a venue owned by a tenant. Its slug is unique platform-wide and
// forms the public URL path.
type Restaurant struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Contact   Contact   `json:"contact"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact holds optional public contact fields.
type Contact struct {
	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Email   string `json:"email,omitempty" yaml:"email"`
	Address string `json:"address,omitempty" yaml:"address"`
	Website string `json:"website,omitempty" yaml:"website"`
}

// CreateRequest is the input for creating a restaurant. Slug defaults to the
// normalized name when empty.
type CreateRequest struct {
	TenantID string  `json:"tenant_id" yaml:"-"`
	Name     string  `json:"name" yaml:"name"`
	Slug     string  `json:"slug" yaml:"slug"`
	Contact  Contact `json:"contact" yaml:"contact"`
}

// SlugCandidate returns the requested slug or, if empty, the name.
func (r *CreateRequest) SlugCandidate() string {
	if r.Slug != "" {
		return r.Slug
	}
	return r.Name
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	if r.TenantID == "" {
		return errors.New("restaurant tenant is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("restaurant name is required")
	}
	if r.Contact.Email != "" {
		if _, err := mail.ParseAddress(r.Contact.Email); err != nil {
			return errors.New("invalid restaurant contact email")
		}
	}
	return nil
}
