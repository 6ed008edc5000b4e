package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/audit"
)

func (s *Store) AppendAudit(ctx context.Context, l *audit.Log) error {
	payload := l.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO audit_logs (id, tenant_id, actor_user_id, action, entity, entity_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		l.ID, l.TenantID, l.ActorUserID, l.Action, l.Entity, l.EntityID, payload,
	).Scan(&l.CreatedAt)
	if err != nil {
		return writeErr(err, "append audit %s", l.Action)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, tenantID string, limit int) ([]audit.Log, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, tenant_id, actor_user_id, action, entity, entity_id, payload, created_at
		FROM audit_logs WHERE tenant_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var out []audit.Log
	for rows.Next() {
		var l audit.Log
		var payload []byte
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ActorUserID, &l.Action, &l.Entity, &l.EntityID, &payload, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		l.Payload = payload
		out = append(out, l)
	}
	return orEmpty(out), rows.Err()
}
