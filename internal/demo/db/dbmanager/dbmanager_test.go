package dbmanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScope = "basejump.curr_clientid"

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = $1 AND c = $12"
	assert.Equal(t, q, DialectPostgres.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE b = ?1 AND c = ?12", DialectSQLite.Rebind(q))
}

func TestDDL(t *testing.T) {
	stmt := "CREATE TABLE x (id {{bigint}}, u {{uuid}}, j {{json}}, at {{ts}})"
	assert.Equal(t, "CREATE TABLE x (id BIGINT, u UUID, j JSONB, at TIMESTAMPTZ)", DialectPostgres.DDL(stmt))
	assert.Equal(t, "CREATE TABLE x (id INTEGER, u TEXT, j TEXT, at TIMESTAMP)", DialectSQLite.DDL(stmt))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/a.db?"+sqlitePragmas, SqliteDSN("/tmp/a.db"))
	assert.Equal(t, "file:/tmp/a.db?mode=rwc&"+sqlitePragmas, SqliteDSN("file:/tmp/a.db?mode=rwc"))
}

func TestSqlitePool(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	db, err := NewScopedDb(ctx, DriverSQLite, filepath.Join(t.TempDir(), "pool.db"), []string{testScope})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DialectSQLite, db.Dialect())

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.AddScope(ctx, testScope, "42"))
	require.NoError(t, conn.AddScope(ctx, "unknown.scope", "x"))
	v, ok := conn.Scope(testScope)
	assert.True(t, ok)
	assert.Equal(t, "42", v)
	_, ok = conn.Scope("unknown.scope")
	assert.False(t, ok)

	var fk int
	require.NoError(t, conn.Conn().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	conn.Close(ctx)
	_, ok = conn.Scope(testScope)
	assert.False(t, ok)

	requests, returns := db.Stats()
	assert.Equal(t, uint64(1), requests)
	assert.Equal(t, uint64(1), returns)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := NewScopedDb(context.Background(), "oracle", "x", nil)
	assert.Error(t, err)
}

func TestPostgresPool(t *testing.T) {
	dsn := os.Getenv("BASEJUMP_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("BASEJUMP_TEST_PG_DSN not set")
	}
	ctx := log.Logger.WithContext(context.Background())
	db, err := NewScopedDb(ctx, DriverPostgres, dsn, []string{testScope})
	require.NoError(t, err)
	defer db.Close()

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)
	require.NoError(t, conn.AddScope(ctx, testScope, "7"))

	var v string
	require.NoError(t, conn.Conn().QueryRowContext(ctx, "SELECT current_setting($1, true)", testScope).Scan(&v))
	assert.Equal(t, "7", v)

	require.NoError(t, conn.DropAllScopes(ctx))
	require.NoError(t, conn.Conn().QueryRowContext(ctx, "SELECT current_setting($1, true)", testScope).Scan(&v))
	assert.Equal(t, "", v)
}
