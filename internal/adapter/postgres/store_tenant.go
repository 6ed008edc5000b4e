package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/tenant"
)

const tenantColumns = `id, name, plan, settings, status, created_at, updated_at`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	var settingsJSON []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Plan, &settingsJSON, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &t.Settings); err != nil {
			return t, fmt.Errorf("decode tenant settings: %w", err)
		}
	}
	return t, nil
}

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	settingsJSON, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("marshal tenant settings: %w", err)
	}
	err = s.q.QueryRow(ctx,
		`INSERT INTO tenants (id, name, plan, settings, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Plan, settingsJSON, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return writeErr(err, "create tenant %q", t.Name)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.q.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return orEmpty(tenants), rows.Err()
}

func (s *Store) UpdateTenantStatus(ctx context.Context, id string, status tenant.Status) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE tenants SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return execExpectOne(tag, err, "update tenant status %s", id)
}
