// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict or a duplicate row
// that has no more specific classification.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates malformed input rejected before any write.
var ErrValidation = errors.New("validation error")

// ErrSlugConflict indicates a slug is already taken within its uniqueness scope.
// Callers may retry with a different candidate.
var ErrSlugConflict = errors.New("slug conflict")

// ErrTenantMismatch indicates a child row would be linked to a parent owned by
// another tenant, or to a parent it cannot belong to.
var ErrTenantMismatch = errors.New("tenant mismatch")

// ErrDuplicateIdentity indicates an email or identifier already exists in its scope.
var ErrDuplicateIdentity = errors.New("duplicate identity")

// ErrDependencyFailure marks a failed non-fatal collaborator step (QR encoding,
// audit write). The enclosing operation continues.
var ErrDependencyFailure = errors.New("dependency failure")

// ErrExternalLookup marks a failed external lookup that degrades to a default.
var ErrExternalLookup = errors.New("external lookup failure")
