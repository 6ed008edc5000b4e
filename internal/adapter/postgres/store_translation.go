package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/translation"
)

func (s *Store) CreateTranslation(ctx context.Context, t *translation.Translation) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO translations (id, tenant_id, locale, entity_type, entity_id, key, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.TenantID, t.Locale, t.EntityType, t.EntityID, t.Key, t.Value)
	if err != nil {
		return writeErr(err, "create translation %s/%s/%s", t.EntityType, t.Locale, t.Key)
	}
	return nil
}

func (s *Store) ListTranslations(ctx context.Context, tenantID string, entityType translation.EntityType, entityID string) ([]translation.Translation, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, tenant_id, locale, entity_type, entity_id, key, value
		FROM translations
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY locale, key`, tenantID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	var out []translation.Translation
	for rows.Next() {
		var t translation.Translation
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Locale, &t.EntityType, &t.EntityID, &t.Key, &t.Value); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out = append(out, t)
	}
	return orEmpty(out), rows.Err()
}
