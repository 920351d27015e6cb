// Package dbtest connects integration tests to the Postgres named by
// TEST_DB_DSN and skips them when it is unset.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/migrate"
)

// Pool returns a migrated, empty database. The pool is closed on cleanup.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_lines, orders, tokens, users, products CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}
