// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Status is the lifecycle state of a tenant. Tenants are never hard-deleted.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// ValidStatuses is the set of all valid tenant statuses.
var ValidStatuses = map[Status]bool{
	StatusActive:    true,
	StatusTrial:     true,
	StatusSuspended: true,
	StatusCancelled: true,
}

// Operational reports whether the tenant's catalog may be served publicly.
func (s Status) Operational() bool {
	return s == StatusActive || s == StatusTrial
}

// Settings holds per-tenant localisation defaults.
type Settings struct {
	Timezone string `json:"timezone" yaml:"timezone"`
	Currency string `json:"currency" yaml:"currency"`
	Language string `json:"language" yaml:"language"`
}

// Tenant is the billing and administrative boundary owning users and restaurants.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Settings  Settings  `json:"settings"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name     string   `json:"name" yaml:"name"`
	Plan     string   `json:"plan" yaml:"plan"`
	Settings Settings `json:"settings" yaml:"settings"`
	Status   Status   `json:"status" yaml:"status"`
}

var (
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	languageRegex = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

// WithDefaults fills empty fields from defaults and returns the result.
func (r CreateRequest) WithDefaults(plan string, defaults Settings) CreateRequest {
	if r.Plan == "" {
		r.Plan = plan
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	if r.Settings.Timezone == "" {
		r.Settings.Timezone = defaults.Timezone
	}
	if r.Settings.Currency == "" {
		r.Settings.Currency = defaults.Currency
	}
	if r.Settings.Language == "" {
		r.Settings.Language = defaults.Language
	}
	r.Settings.Currency = strings.ToUpper(r.Settings.Currency)
	return r
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("tenant name is required")
	}
	if r.Plan == "" {
		return errors.New("tenant plan is required")
	}
	if !ValidStatuses[r.Status] {
		return fmt.Errorf("invalid tenant status %q", r.Status)
	}
	if _, err := time.LoadLocation(r.Settings.Timezone); err != nil || r.Settings.Timezone == "" {
		return fmt.Errorf("invalid timezone %q", r.Settings.Timezone)
	}
	if !currencyRegex.MatchString(r.Settings.Currency) {
		return fmt.Errorf("invalid currency %q: must be an ISO 4217 code", r.Settings.Currency)
	}
	if !languageRegex.MatchString(r.Settings.Language) {
		return fmt.Errorf("invalid language %q", r.Settings.Language)
	}
	return nil
}
