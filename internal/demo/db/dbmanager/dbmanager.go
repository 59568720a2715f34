// Package dbmanager provides the metadata store connection pools and client scoped connections.
package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

type ScopedDb interface {
	// Conn returns a new connection to the database.
	// Returns a ScopedConn and an error, if any.
	Conn(ctx context.Context) (ScopedConn, error)
	// Stats returns the number of connection requests and returns.
	Stats() (requests, returns uint64)
	// Dialect is the SQL flavour spoken by the pool.
	Dialect() Dialect
	// DB exposes the pool for schema setup.
	DB() *sql.DB
	Close() error
}

type ScopedConn interface {
	// AddScope adds the given scope with the given value to the connection.
	AddScope(ctx context.Context, scope, value string) error
	// DropScope drops the given scope from the connection.
	DropScope(ctx context.Context, scope string) error
	// DropAllScopes drops all scopes from the connection.
	DropAllScopes(ctx context.Context) error
	// Scope returns the value set for scope on this connection.
	Scope(scope string) (string, bool)
	// Conn returns the underlying connection of the ScopedConn.
	Conn() *sql.Conn
	Dialect() Dialect
	// Close drops all scopes and returns the connection back to the pool.
	Close(ctx context.Context)
}

const (
	DriverPostgres = "postgresql"
	DriverSQLite   = "sqlite"
)

// NewScopedDb opens a pool for the given driver and waits until it answers a ping.
func NewScopedDb(ctx context.Context, driver, dsn string, configuredScopes []string) (ScopedDb, error) {
	var (
		db  ScopedDb
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = NewPostgresqlDb(dsn, configuredScopes)
	case DriverSQLite:
		db, err = NewSqliteDb(dsn, configuredScopes)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("driver", driver).Msg("failed to create db pool")
		return nil, err
	}
	if err := ping(ctx, db.DB()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	return retry.Do(
		func() error {
			return db.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("db ping failed, retrying")
		}),
	)
}

// ScopeClientID binds a connection to one client.
const ScopeClientID = "basejump.curr_clientid"
