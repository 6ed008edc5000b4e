package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
)

const restaurantColumns = `id, tenant_id, name, slug, contact, is_active, created_at, updated_at`

func scanRestaurant(row scannable) (restaurant.Restaurant, error) {
	var r restaurant.Restaurant
	var contactJSON []byte
	if err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Slug, &contactJSON, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return r, err
	}
	if len(contactJSON) > 0 {
		if err := json.Unmarshal(contactJSON, &r.Contact); err != nil {
			return r, fmt.Errorf("decode restaurant contact: %w", err)
		}
	}
	return r, nil
}

func (s *Store) CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) error {
	contactJSON, err := json.Marshal(r.Contact)
	if err != nil {
		return fmt.Errorf("marshal restaurant contact: %w", err)
	}
	err = s.q.QueryRow(ctx, `
		INSERT INTO restaurants (id, tenant_id, name, slug, contact, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		r.ID, r.TenantID, r.Name, r.Slug, contactJSON, r.IsActive,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return writeErr(err, "create restaurant %q", r.Slug)
	}
	return nil
}

func (s *Store) GetRestaurant(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	r, err := scanRestaurant(s.q.QueryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get restaurant %s", id)
	}
	return &r, nil
}

func (s *Store) GetRestaurantBySlug(ctx context.Context, slug string) (*restaurant.Restaurant, error) {
	r, err := scanRestaurant(s.q.QueryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFoundWrap(err, "get restaurant by slug %q", slug)
	}
	return &r, nil
}

func (s *Store) ListRestaurants(ctx context.Context, tenantID string) ([]restaurant.Restaurant, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var out []restaurant.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	return orEmpty(out), rows.Err()
}

func (s *Store) UpdateRestaurantSlug(ctx context.Context, id, slug string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE restaurants SET slug = $2, updated_at = now() WHERE id = $1`, id, slug)
	return execExpectOne(tag, err, "update restaurant slug %s", id)
}

func (s *Store) DeactivateRestaurant(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE restaurants SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	return execExpectOne(tag, err, "deactivate restaurant %s", id)
}
