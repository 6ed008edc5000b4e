package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/MenuForge/internal/domain/slug"
	"github.com/Strob0t/MenuForge/internal/port/database"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx. Begin on a pool
// opens a transaction, on a transaction it opens a savepoint.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements database.Store using PostgreSQL.
type Store struct {
	q querier
}

var _ database.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{q: pool}
}

// InTx runs fn inside a transaction (or a savepoint when s is already bound
// to one). pgx.BeginFunc rolls back on error or panic and commits otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx database.Store) error) error {
	return pgx.BeginFunc(ctx, s.q, func(tx pgx.Tx) error {
		return fn(&Store{q: tx})
	})
}

// SlugTaken implements slug.Checker.
func (s *Store) SlugTaken(ctx context.Context, scope slug.Scope, candidate string) (bool, error) {
	var taken bool
	var err error
	switch scope.Kind {
	case slug.KindRestaurant:
		err = s.q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM restaurants WHERE slug = $1)`, candidate,
		).Scan(&taken)
	case slug.KindMenu:
		err = s.q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM menus WHERE restaurant_id = $1 AND slug = $2)`,
			scope.RestaurantID, candidate,
		).Scan(&taken)
	default:
		return false, fmt.Errorf("unknown slug scope %q", scope.Kind)
	}
	if err != nil {
		return false, fmt.Errorf("slug taken %s: %w", scope, err)
	}
	return taken, nil
}
