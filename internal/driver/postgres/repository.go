// Package postgres holds the tenant database drivers. Queries run
// through the service-role connection, which bypasses row-level
// security; eligibility filtering happens in the resolver, never by
// trusting the caller.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface the drivers need. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository bundles the drivers over one connection pool.
type Repository struct {
	db     DB
	logger *slog.Logger
}

// NewRepository creates a repository over db.
func NewRepository(db DB, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
