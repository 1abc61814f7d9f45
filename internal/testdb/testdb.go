// Package testdb provisions an isolated PostgreSQL database per test.
package testdb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/ayanko/active-conductor/record/recordpgx"
)

const (
	host     = "localhost"
	port     = "5432"
	user     = "testdb"
	password = "testdb"
	adminDB  = "postgres"
)

func AdminDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, adminDB)
}

// NewStore creates a fresh database named after the test, opens a migrated
// recordpgx store on it and closes the store when the test finishes.
func NewStore(t testing.TB, log *slog.Logger) (store *recordpgx.Store, dsn string) {
	t.Helper()
	ctx := context.Background()

	// Derive a unique test DB name from the test name
	dbName := "test_" + strings.ReplaceAll(t.Name(), "/", "_")

	adminPool, err := pgxpool.New(ctx, AdminDSN())
	require.NoError(t, err)
	defer adminPool.Close()

	dbNameSanitized := pgx.Identifier{dbName}.Sanitize()
	_, err = adminPool.Exec(ctx, `DROP DATABASE IF EXISTS `+dbNameSanitized)
	require.NoError(t, err)
	_, err = adminPool.Exec(ctx, `CREATE DATABASE `+dbNameSanitized)
	require.NoError(t, err)

	testDSN := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbName)

	store, err = recordpgx.Open(ctx, log, testDSN, 0, recordpgx.DefaultRetry())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	t.Cleanup(store.Close)
	return store, testDSN
}
