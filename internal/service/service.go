// Package service implements the MenuForge catalog core: provisioning,
// catalog mutations, QR artifacts, audit recording, country detection and
// the public read path.
package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Strob0t/MenuForge/internal/domain"
)

func newID() string { return uuid.NewString() }

// invalid classifies a plain validation error as domain.ErrValidation.
func invalid(what string, err error) error {
	return fmt.Errorf("validate %s: %w: %w", what, domain.ErrValidation, err)
}
