package dbmanager

import (
	"context"
	"database/sql"
	"slices"
	"sync/atomic"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog/log"
)

// postgresConn represents a connection to the PostgreSQL database.
type postgresConn struct {
	conn             *sql.Conn
	cancel           context.CancelFunc
	scopes           map[string]string
	configuredScopes []string
	pool             *postgresPool
}

// postgresPool represents a pool of PostgreSQL database connections.
type postgresPool struct {
	configuredScopes []string
	connRequests     atomic.Uint64
	connReturns      atomic.Uint64
	db               *sql.DB
}

// NewPostgresqlDb creates a new PostgreSQL database connection pool with the given configured scopes.
func NewPostgresqlDb(dsn string, configuredScopes []string) (ScopedDb, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, err
	}
	return &postgresPool{
		configuredScopes: configuredScopes,
		db:               sqlDB,
	}, nil
}

// Conn returns a new connection to the PostgreSQL database from the connection pool.
func (p *postgresPool) Conn(ctx context.Context) (ScopedConn, error) {
	ctx, cancel := context.WithCancel(ctx)

	conn, err := p.db.Conn(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to obtain connection")
		cancel()
		return nil, err
	}

	// set lock timeout for conn
	if _, err = conn.ExecContext(ctx, "SET lock_timeout = '5s'"); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to set lock timeout")
		conn.Close()
		cancel()
		return nil, err
	}
	// set statement timeout for conn
	if _, err = conn.ExecContext(ctx, "SET statement_timeout = '30s'"); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to set statement timeout")
		conn.Close()
		cancel()
		return nil, err
	}
	h := &postgresConn{
		configuredScopes: p.configuredScopes,
		scopes:           make(map[string]string),
		cancel:           cancel,
		pool:             p,
		conn:             conn,
	}

	// Clean up the scopes, just in case.
	if err = h.DropAllScopes(ctx); err != nil {
		conn.Close()
		cancel()
		return nil, err
	}

	p.connRequests.Add(1)
	return h, nil
}

// Stats returns the number of connection requests and returns made to the PostgreSQL database.
func (p *postgresPool) Stats() (requests, returns uint64) {
	return p.connRequests.Load(), p.connReturns.Load()
}

func (p *postgresPool) Dialect() Dialect {
	return DialectPostgres
}

func (p *postgresPool) DB() *sql.DB {
	return p.db
}

func (p *postgresPool) Close() error {
	return p.db.Close()
}

// Close cleans up the scopes and returns the connection back to the pool.
func (h *postgresConn) Close(ctx context.Context) {
	if err := h.DropAllScopes(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to drop scopes on close")
	}
	if h.conn != nil {
		h.conn.Close()
	}
	if h.cancel != nil {
		h.cancel()
	}
	h.pool.connReturns.Add(1)
}

// AddScope sets a configured scope as a session variable on the connection.
func (h *postgresConn) AddScope(ctx context.Context, scope, value string) error {
	if h.conn == nil {
		return nil
	}
	if !slices.Contains(h.configuredScopes, scope) {
		return nil
	}
	if _, err := h.conn.ExecContext(ctx, "SELECT set_config($1, $2, false)", scope, value); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("scope", scope).Msg("failed to set scope")
		return err
	}
	h.scopes[scope] = value
	return nil
}

// DropScope drops a single scope from the connection.
func (h *postgresConn) DropScope(ctx context.Context, scope string) error {
	if h.conn == nil {
		return nil
	}
	if _, err := h.conn.ExecContext(ctx, "SELECT set_config($1, '', false)", scope); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("scope", scope).Msg("failed to reset scope")
		return err
	}
	delete(h.scopes, scope)
	return nil
}

// DropAllScopes drops all the configured scopes from the connection.
func (h *postgresConn) DropAllScopes(ctx context.Context) error {
	for _, scope := range h.configuredScopes {
		if err := h.DropScope(ctx, scope); err != nil {
			return err
		}
	}
	return nil
}

func (h *postgresConn) Scope(scope string) (string, bool) {
	v, ok := h.scopes[scope]
	return v, ok
}

// Conn returns the underlying connection of the postgresConn.
func (h *postgresConn) Conn() *sql.Conn {
	return h.conn
}

func (h *postgresConn) Dialect() Dialect {
	return DialectPostgres
}
