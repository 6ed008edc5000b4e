package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/menu"
)

func (s *Store) CreateItem(ctx context.Context, it *menu.Item) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO menu_items (id, tenant_id, menu_id, section_id, name, description, active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		it.ID, it.TenantID, it.MenuID, it.SectionID, it.Name, it.Description, it.Active, it.SortOrder,
	).Scan(&it.CreatedAt)
	if err != nil {
		return writeErr(err, "create item %q", it.Name)
	}
	return nil
}

func (s *Store) CreatePrice(ctx context.Context, p *menu.Price) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO item_prices (id, tenant_id, item_id, currency, label, amount_minor)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.TenantID, p.ItemID, p.Currency, p.Label, p.AmountMinor)
	if err != nil {
		return writeErr(err, "create price %q for item %s", p.Label, p.ItemID)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*menu.Item, error) {
	var it menu.Item
	err := s.q.QueryRow(ctx, `
		SELECT id, tenant_id, menu_id, section_id, name, description, active, sort_order, created_at
		FROM menu_items WHERE id = $1`, id,
	).Scan(&it.ID, &it.TenantID, &it.MenuID, &it.SectionID, &it.Name, &it.Description, &it.Active, &it.SortOrder, &it.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get item %s", id)
	}
	return &it, nil
}

func (s *Store) ListItems(ctx context.Context, menuID string) ([]menu.Item, error) {
	rows, err := s.q.Query(ctx, `
		SELECT i.id, i.tenant_id, i.menu_id, i.section_id, i.name, i.description, i.active, i.sort_order, i.created_at,
		       COALESCE(array_agg(ii.icon_id::text) FILTER (WHERE ii.icon_id IS NOT NULL), '{}')
		FROM menu_items i
		JOIN menu_sections s ON s.id = i.section_id
		LEFT JOIN item_icons ii ON ii.item_id = i.id
		WHERE i.menu_id = $1
		GROUP BY i.id, s.sort_order
		ORDER BY s.sort_order, i.sort_order, i.created_at`, menuID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []menu.Item
	index := make(map[string]int)
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.ID, &it.TenantID, &it.MenuID, &it.SectionID, &it.Name, &it.Description,
			&it.Active, &it.SortOrder, &it.CreatedAt, &it.IconIDs); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	priceRows, err := s.q.Query(ctx, `
		SELECT p.id, p.tenant_id, p.item_id, p.currency, p.label, p.amount_minor
		FROM item_prices p
		JOIN menu_items i ON i.id = p.item_id
		WHERE i.menu_id = $1
		ORDER BY p.amount_minor, p.label`, menuID)
	if err != nil {
		return nil, fmt.Errorf("list item prices: %w", err)
	}
	defer priceRows.Close()

	for priceRows.Next() {
		var p menu.Price
		if err := priceRows.Scan(&p.ID, &p.TenantID, &p.ItemID, &p.Currency, &p.Label, &p.AmountMinor); err != nil {
			return nil, fmt.Errorf("scan item price: %w", err)
		}
		if i, ok := index[p.ItemID]; ok {
			items[i].Prices = append(items[i].Prices, p)
		}
	}
	return orEmpty(items), priceRows.Err()
}

func (s *Store) SetItemActive(ctx context.Context, id string, active bool) error {
	tag, err := s.q.Exec(ctx, `UPDATE menu_items SET active = $2 WHERE id = $1`, id, active)
	return execExpectOne(tag, err, "set item active %s", id)
}
