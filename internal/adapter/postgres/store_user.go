package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/user"
)

const userColumns = `id, tenant_id, email, name, password_hash, role, is_active, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO users (id, tenant_id, email, name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return writeErr(err, "create user %s", u.Email)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string, tenantID *string) (*user.User, error) {
	// IS NOT DISTINCT FROM matches the platform scope when tenantID is nil.
	u, err := scanUser(s.q.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE lower(email) = lower($1) AND tenant_id IS NOT DISTINCT FROM $2`,
		email, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE $1 = '' OR tenant_id = NULLIF($1, '')::uuid
		ORDER BY tenant_id NULLS FIRST, created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return orEmpty(users), rows.Err()
}
