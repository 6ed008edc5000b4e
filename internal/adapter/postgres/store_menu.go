package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
)

const menuColumns = `id, tenant_id, restaurant_id, name, slug, status, is_active, created_at, updated_at`

func scanMenu(row scannable) (menu.Menu, error) {
	var m menu.Menu
	err := row.Scan(&m.ID, &m.TenantID, &m.RestaurantID, &m.Name, &m.Slug, &m.Status, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *Store) CreateMenu(ctx context.Context, m *menu.Menu) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO menus (id, tenant_id, restaurant_id, name, slug, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		m.ID, m.TenantID, m.RestaurantID, m.Name, m.Slug, m.Status, m.IsActive,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return writeErr(err, "create menu %q", m.Slug)
	}
	return nil
}

func (s *Store) GetMenu(ctx context.Context, id string) (*menu.Menu, error) {
	m, err := scanMenu(s.q.QueryRow(ctx,
		`SELECT `+menuColumns+` FROM menus WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get menu %s", id)
	}
	return &m, nil
}

func (s *Store) LockMenu(ctx context.Context, id string) (*menu.Menu, error) {
	m, err := scanMenu(s.q.QueryRow(ctx,
		`SELECT `+menuColumns+` FROM menus WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundWrap(err, "lock menu %s", id)
	}
	return &m, nil
}

func (s *Store) GetMenuBySlug(ctx context.Context, restaurantID, slug string) (*menu.Menu, error) {
	m, err := scanMenu(s.q.QueryRow(ctx,
		`SELECT `+menuColumns+` FROM menus WHERE restaurant_id = $1 AND slug = $2`, restaurantID, slug))
	if err != nil {
		return nil, notFoundWrap(err, "get menu by slug %q", slug)
	}
	return &m, nil
}

func (s *Store) ListMenus(ctx context.Context, restaurantID string) ([]menu.Menu, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+menuColumns+` FROM menus WHERE restaurant_id = $1 ORDER BY updated_at DESC`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	defer rows.Close()

	var out []menu.Menu
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		out = append(out, m)
	}
	return orEmpty(out), rows.Err()
}

func (s *Store) UpdateMenuSlug(ctx context.Context, id, slug string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE menus SET slug = $2, updated_at = now() WHERE id = $1`, id, slug)
	return execExpectOne(tag, err, "update menu slug %s", id)
}

func (s *Store) UpdateMenuStatus(ctx context.Context, id string, status menu.Status) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE menus SET status = $2, is_active = ($2 <> 'ARCHIVED'), updated_at = now() WHERE id = $1`, id, status)
	return execExpectOne(tag, err, "update menu status %s", id)
}

// --- Sections ---

func (s *Store) CreateSection(ctx context.Context, sec *menu.Section) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO menu_sections (id, tenant_id, menu_id, name, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sec.ID, sec.TenantID, sec.MenuID, sec.Name, sec.SortOrder, sec.IsActive)
	if err != nil {
		return writeErr(err, "create section %q", sec.Name)
	}
	return nil
}

func (s *Store) GetSection(ctx context.Context, id string) (*menu.Section, error) {
	var sec menu.Section
	err := s.q.QueryRow(ctx, `
		SELECT id, tenant_id, menu_id, name, sort_order, is_active
		FROM menu_sections WHERE id = $1`, id,
	).Scan(&sec.ID, &sec.TenantID, &sec.MenuID, &sec.Name, &sec.SortOrder, &sec.IsActive)
	if err != nil {
		return nil, notFoundWrap(err, "get section %s", id)
	}
	return &sec, nil
}

func (s *Store) ListSections(ctx context.Context, menuID string) ([]menu.Section, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, tenant_id, menu_id, name, sort_order, is_active
		FROM menu_sections WHERE menu_id = $1 ORDER BY sort_order`, menuID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var out []menu.Section
	for rows.Next() {
		var sec menu.Section
		if err := rows.Scan(&sec.ID, &sec.TenantID, &sec.MenuID, &sec.Name, &sec.SortOrder, &sec.IsActive); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	return orEmpty(out), rows.Err()
}

// SetSectionOrder defers the (menu_id, sort_order) unique check so positions
// can be swapped inside one transaction. Callers hold the menu lock.
func (s *Store) SetSectionOrder(ctx context.Context, menuID string, orderedIDs []string) error {
	if _, err := s.q.Exec(ctx, `SET CONSTRAINTS sections_menu_order_uq DEFERRED`); err != nil {
		return fmt.Errorf("defer section order constraint: %w", err)
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE menu_sections AS s
		SET sort_order = o.pos
		FROM unnest($2::uuid[]) WITH ORDINALITY AS o(id, pos)
		WHERE s.id = o.id AND s.menu_id = $1`, menuID, orderedIDs)
	if err != nil {
		return writeErr(err, "reorder sections of menu %s", menuID)
	}
	if int(tag.RowsAffected()) != len(orderedIDs) {
		return fmt.Errorf("reorder sections of menu %s: %d of %d sections matched: %w",
			menuID, tag.RowsAffected(), len(orderedIDs), domain.ErrTenantMismatch)
	}
	return nil
}
