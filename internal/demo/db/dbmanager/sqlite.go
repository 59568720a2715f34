package dbmanager

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// sqlitePool is a SQLite file database. SQLite has no session variables, so scopes are only
// tracked on the connection.
type sqlitePool struct {
	configuredScopes []string
	connRequests     atomic.Uint64
	connReturns      atomic.Uint64
	db               *sql.DB
}

type sqliteConn struct {
	conn             *sql.Conn
	cancel           context.CancelFunc
	scopes           map[string]string
	configuredScopes []string
	pool             *sqlitePool
}

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

// SqliteDSN adds the pragmas every connection needs to a file path or file: URI.
func SqliteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// NewSqliteDb opens a SQLite database at dsn, which may be a plain file path.
func NewSqliteDb(dsn string, configuredScopes []string) (ScopedDb, error) {
	sqlDB, err := sql.Open("sqlite", SqliteDSN(dsn))
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, err
	}
	return &sqlitePool{
		configuredScopes: configuredScopes,
		db:               sqlDB,
	}, nil
}

func (p *sqlitePool) Conn(ctx context.Context) (ScopedConn, error) {
	ctx, cancel := context.WithCancel(ctx)
	conn, err := p.db.Conn(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to obtain connection")
		cancel()
		return nil, err
	}
	p.connRequests.Add(1)
	return &sqliteConn{
		conn:             conn,
		cancel:           cancel,
		scopes:           make(map[string]string),
		configuredScopes: p.configuredScopes,
		pool:             p,
	}, nil
}

func (p *sqlitePool) Stats() (requests, returns uint64) {
	return p.connRequests.Load(), p.connReturns.Load()
}

func (p *sqlitePool) Dialect() Dialect {
	return DialectSQLite
}

func (p *sqlitePool) DB() *sql.DB {
	return p.db
}

func (p *sqlitePool) Close() error {
	return p.db.Close()
}

func (h *sqliteConn) AddScope(ctx context.Context, scope, value string) error {
	if slices.Contains(h.configuredScopes, scope) {
		h.scopes[scope] = value
	}
	return nil
}

func (h *sqliteConn) DropScope(ctx context.Context, scope string) error {
	delete(h.scopes, scope)
	return nil
}

func (h *sqliteConn) DropAllScopes(ctx context.Context) error {
	clear(h.scopes)
	return nil
}

func (h *sqliteConn) Scope(scope string) (string, bool) {
	v, ok := h.scopes[scope]
	return v, ok
}

func (h *sqliteConn) Conn() *sql.Conn {
	return h.conn
}

func (h *sqliteConn) Dialect() Dialect {
	return DialectSQLite
}

func (h *sqliteConn) Close(ctx context.Context) {
	h.DropAllScopes(ctx)
	if h.conn != nil {
		h.conn.Close()
	}
	if h.cancel != nil {
		h.cancel()
	}
	h.pool.connReturns.Add(1)
}
