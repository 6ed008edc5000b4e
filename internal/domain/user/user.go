// Package user defines the user domain model for platform and tenant identities.
package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleEditor     Role = "EDITOR"
	RoleViewer     Role = "VIEWER"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleSuperAdmin: true,
	RoleAdmin:      true,
	RoleEditor:     true,
	RoleViewer:     true,
}

// User is a platform identity (TenantID nil, SUPER_ADMIN only) or a tenant member.
type User struct {
	ID           string    `json:"id"`
	TenantID     *string   `json:"tenant_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialized
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Platform reports whether the user lives outside any tenant.
func (u *User) Platform() bool { return u.TenantID == nil }

// CreateRequest is the input for creating a user.
type CreateRequest struct {
	Email    string  `json:"email" yaml:"email"`
	Name     string  `json:"name" yaml:"name"`
	Password string  `json:"password" yaml:"password"` //nolint:gosec // request field, not a hardcoded secret
	Role     Role    `json:"role" yaml:"role"`
	TenantID *string `json:"tenant_id" yaml:"-"`
}

// NormalizeEmail lowercases and trims an email for uniqueness comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the request. minPassword is the configured minimum password length.
func (r *CreateRequest) Validate(minPassword int) error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if len(r.Password) < minPassword {
		return fmt.Errorf("password must be at least %d characters", minPassword)
	}
	if !ValidRoles[r.Role] {
		return errors.New("invalid role: must be SUPER_ADMIN, ADMIN, EDITOR, or VIEWER")
	}
	if r.Role == RoleSuperAdmin && r.TenantID != nil {
		return errors.New("SUPER_ADMIN must not belong to a tenant")
	}
	if r.Role != RoleSuperAdmin && r.TenantID == nil {
		return fmt.Errorf("%s requires a tenant", r.Role)
	}
	return nil
}
