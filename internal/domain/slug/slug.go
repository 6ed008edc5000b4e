// Package slug implements the identifier policy for restaurant and menu slugs:
// normalization, validation and reservation within a uniqueness scope.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	gosimple "github.com/gosimple/slug"

	"github.com/Strob0t/MenuForge/internal/domain"
)

// MaxLength is the longest slug accepted.
const MaxLength = 64

// maxSuffix bounds the AutoSuffix search.
const maxSuffix = 99

var (
	validRegex   = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,62}[a-z0-9])?$`)
	nonAlnum     = regexp.MustCompile(`[^a-z0-9]+`)
	doubleHyphen = regexp.MustCompile(`-{2,}`)
)

// Kind identifies a uniqueness domain.
type Kind string

const (
	KindRestaurant Kind = "restaurant" // platform-wide
	KindMenu       Kind = "menu"       // per restaurant
)

// Scope is the uniqueness domain a slug is reserved in.
type Scope struct {
	Kind         Kind
	RestaurantID string // set for KindMenu
}

// RestaurantScope is the platform-wide scope used for restaurant slugs.
func RestaurantScope() Scope { return Scope{Kind: KindRestaurant} }

// MenuScope is the per-restaurant scope used for menu slugs.
func MenuScope(restaurantID string) Scope {
	return Scope{Kind: KindMenu, RestaurantID: restaurantID}
}

func (s Scope) String() string {
	if s.Kind == KindMenu {
		return "menu@" + s.RestaurantID
	}
	return string(s.Kind)
}

// Policy decides what happens when a candidate is already taken.
type Policy int

const (
	// FailOnConflict rejects a taken candidate with domain.ErrSlugConflict.
	FailOnConflict Policy = iota
	// AutoSuffix appends -2, -3, ... until a free slug is found.
	AutoSuffix
)

// Checker reports whether a slug is already used within a scope.
type Checker interface {
	SlugTaken(ctx context.Context, scope Scope, slug string) (bool, error)
}

// Normalize converts free text into slug form: ASCII transliteration,
// lowercase, single hyphens between alphanumeric runs.
func Normalize(s string) string {
	out := strings.ToLower(gosimple.Make(s))
	out = nonAlnum.ReplaceAllString(out, "-")
	out = doubleHyphen.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// Validate checks that s is already in normalized slug form.
func Validate(s string) error {
	if s == "" {
		return fmt.Errorf("slug is required: %w", domain.ErrValidation)
	}
	if !validRegex.MatchString(s) {
		return fmt.Errorf("invalid slug %q: must be 1-64 lowercase alphanumeric characters or single hyphens: %w", s, domain.ErrValidation)
	}
	if strings.Contains(s, "--") {
		return fmt.Errorf("invalid slug %q: consecutive hyphens: %w", s, domain.ErrValidation)
	}
	return nil
}

// Reserve normalizes candidate and checks it against the scope. It performs no
// writes; the store's unique index is the final arbiter when the row is inserted.
func Reserve(ctx context.Context, checker Checker, scope Scope, candidate string, policy Policy) (string, error) {
	base := Normalize(candidate)
	if err := Validate(base); err != nil {
		return "", err
	}

	taken, err := checker.SlugTaken(ctx, scope, base)
	if err != nil {
		return "", fmt.Errorf("check slug %q in %s: %w", base, scope, err)
	}
	if !taken {
		return base, nil
	}
	if policy == FailOnConflict {
		return "", fmt.Errorf("slug %q already taken in %s: %w", base, scope, domain.ErrSlugConflict)
	}

	for n := 2; n <= maxSuffix; n++ {
		suffix := "-" + strconv.Itoa(n)
		cand := base
		if len(cand)+len(suffix) > MaxLength {
			cand = strings.TrimRight(cand[:MaxLength-len(suffix)], "-")
		}
		cand += suffix
		taken, err := checker.SlugTaken(ctx, scope, cand)
		if err != nil {
			return "", fmt.Errorf("check slug %q in %s: %w", cand, scope, err)
		}
		if !taken {
			return cand, nil
		}
	}
	return "", fmt.Errorf("no free suffix for slug %q in %s: %w", base, scope, domain.ErrSlugConflict)
}
