package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/MenuForge/internal/domain"
)

// SQLSTATE codes mapped onto the domain taxonomy.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// constraintErrors classifies named constraints from the catalog schema.
var constraintErrors = map[string]error{
	"restaurants_slug_uq":            domain.ErrSlugConflict,
	"menus_restaurant_slug_uq":       domain.ErrSlugConflict,
	"restaurants_slug_format_chk":    domain.ErrValidation,
	"menus_slug_format_chk":          domain.ErrValidation,
	"users_platform_email_uq":        domain.ErrDuplicateIdentity,
	"users_tenant_email_uq":          domain.ErrDuplicateIdentity,
	"users_super_admin_platform_chk": domain.ErrValidation,
	"users_tenant_role_chk":          domain.ErrValidation,
	"prices_amount_chk":              domain.ErrValidation,
	"menus_restaurant_tenant_fk":     domain.ErrTenantMismatch,
	"sections_menu_tenant_fk":        domain.ErrTenantMismatch,
	"items_section_menu_tenant_fk":   domain.ErrTenantMismatch,
	"prices_item_tenant_fk":          domain.ErrTenantMismatch,
	"qr_codes_menu_tenant_fk":        domain.ErrTenantMismatch,
	"audit_actor_tenant_fk":          domain.ErrTenantMismatch,
}

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// writeErr wraps a write error, classifying constraint violations so callers
// can match them with errors.Is.
func writeErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if sentinel, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%s: %s: %w", msg, pgErr.ConstraintName, sentinel)
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %s: %w", msg, pgErr.ConstraintName, domain.ErrConflict)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %s: %w", msg, pgErr.ConstraintName, domain.ErrNotFound)
	case codeCheckViolation:
		return fmt.Errorf("%s: %s: %w", msg, pgErr.ConstraintName, domain.ErrValidation)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// notFoundWrap checks whether err is pgx.ErrNoRows and, if so, wraps
// domain.ErrNotFound with the given message. Otherwise it wraps the
// original error.
func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// execExpectOne verifies that an Exec affected exactly one row. If not
// (and err is nil), it returns domain.ErrNotFound with the given message.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return writeErr(err, format, args...)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return nil
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
