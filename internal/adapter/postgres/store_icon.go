package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/icon"
)

// UpsertIcon inserts the icon or updates its label. On conflict the existing
// id is kept and written back into i.
func (s *Store) UpsertIcon(ctx context.Context, i *icon.Icon) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO icons (id, code, label_i18n_key) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET label_i18n_key = EXCLUDED.label_i18n_key
		RETURNING id`,
		i.ID, i.Code, i.LabelI18nKey,
	).Scan(&i.ID)
	if err != nil {
		return writeErr(err, "upsert icon %q", i.Code)
	}
	return nil
}

func (s *Store) ListIcons(ctx context.Context) ([]icon.Icon, error) {
	rows, err := s.q.Query(ctx, `SELECT id, code, label_i18n_key FROM icons ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list icons: %w", err)
	}
	defer rows.Close()

	var out []icon.Icon
	for rows.Next() {
		var i icon.Icon
		if err := rows.Scan(&i.ID, &i.Code, &i.LabelI18nKey); err != nil {
			return nil, fmt.Errorf("scan icon: %w", err)
		}
		out = append(out, i)
	}
	return orEmpty(out), rows.Err()
}

// TagItem is idempotent; tagging twice leaves a single row.
func (s *Store) TagItem(ctx context.Context, itemID, iconID string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO item_icons (item_id, icon_id) VALUES ($1, $2)
		ON CONFLICT (item_id, icon_id) DO NOTHING`, itemID, iconID)
	if err != nil {
		return writeErr(err, "tag item %s with icon %s", itemID, iconID)
	}
	return nil
}
