// Package schema creates the metadata tables. Statements use {{type}} tokens that the dialect
// resolves, so one set of statements serves PostgreSQL and SQLite.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/demo/db/dbmanager"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		value {{bigint}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		client_id {{bigint}} PRIMARY KEY,
		client_uuid {{uuid}} NOT NULL UNIQUE,
		client_name TEXT NOT NULL,
		client_type TEXT NOT NULL,
		hashed_client_secret TEXT NOT NULL,
		client_secret_uuid {{uuid}} NOT NULL,
		description TEXT,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS client_storage_connections (
		storage_id {{bigint}} PRIMARY KEY,
		storage_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		alias TEXT NOT NULL,
		storage_provider TEXT NOT NULL,
		region TEXT NOT NULL,
		bucket_name TEXT NOT NULL,
		access_key TEXT NOT NULL,
		secret_access_key TEXT NOT NULL,
		prefix TEXT NOT NULL,
		active BOOLEAN NOT NULL,
		internal BOOLEAN NOT NULL,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		team_id {{bigint}} PRIMARY KEY,
		team_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		team_name TEXT NOT NULL,
		team_desc TEXT,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id {{bigint}} PRIMARY KEY,
		user_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		username TEXT NOT NULL,
		email_address TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_team_associations (
		user_id {{bigint}} NOT NULL REFERENCES users (user_id),
		team_id {{bigint}} NOT NULL REFERENCES teams (team_id),
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS vectors (
		vector_id {{bigint}} PRIMARY KEY,
		vector_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		vector_database_vendor TEXT NOT NULL,
		vector_datasource_type TEXT NOT NULL,
		index_name TEXT NOT NULL,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS database_params (
		db_id {{bigint}} PRIMARY KEY,
		db_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		database_type TEXT NOT NULL,
		drivername TEXT NOT NULL,
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		database_name TEXT NOT NULL,
		schemas {{json}},
		available_schemas {{json}},
		include_default_schema BOOLEAN NOT NULL,
		include_views BOOLEAN NOT NULL,
		ssl BOOLEAN NOT NULL,
		database_desc TEXT,
		vector_id {{bigint}} NOT NULL REFERENCES vectors (vector_id),
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS connections (
		conn_id {{bigint}} PRIMARY KEY,
		conn_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		db_id {{bigint}} NOT NULL REFERENCES database_params (db_id),
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		data_source_desc TEXT,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS conn_team_associations (
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		team_id {{bigint}} NOT NULL REFERENCES teams (team_id),
		conn_id {{bigint}} NOT NULL REFERENCES connections (conn_id),
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		chat_id {{bigint}} PRIMARY KEY,
		chat_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		user_id {{bigint}} NOT NULL REFERENCES users (user_id),
		team_id {{bigint}} NOT NULL REFERENCES teams (team_id),
		vector_id {{bigint}} NOT NULL UNIQUE REFERENCES vectors (vector_id),
		chat_name TEXT NOT NULL,
		chat_description TEXT,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		msg_id {{bigint}} PRIMARY KEY,
		msg_uuid {{uuid}} NOT NULL UNIQUE,
		chat_id {{bigint}} NOT NULL REFERENCES chats (chat_id),
		role TEXT NOT NULL,
		prompt TEXT,
		content TEXT NOT NULL,
		query_result {{json}},
		result_uuid {{uuid}},
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		result_id {{bigint}} PRIMARY KEY,
		result_uuid {{uuid}} NOT NULL UNIQUE,
		client_id {{bigint}} NOT NULL REFERENCES clients (client_id),
		chat_id {{bigint}} NOT NULL REFERENCES chats (chat_id),
		msg_id {{bigint}} NOT NULL REFERENCES messages (msg_id),
		sql_query TEXT NOT NULL,
		result_type TEXT NOT NULL,
		object_key TEXT,
		visual_json {{json}},
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages (chat_id, msg_id)`,
	`CREATE INDEX IF NOT EXISTS idx_database_params_target ON database_params (client_id, host, port, database_name)`,
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureSchema creates every metadata table that does not exist yet.
func EnsureSchema(ctx context.Context, db execer, d dbmanager.Dialect) error {
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, d.DDL(stmt)); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to create metadata table")
			return err
		}
	}
	return nil
}

// ClientSchemaName is the per client namespace on PostgreSQL.
func ClientSchemaName(clientID int64) string {
	return fmt.Sprintf("client_%d", clientID)
}

// EnsureClientSchema creates the client's own schema. SQLite has a single namespace, so it
// is a no-op there.
func EnsureClientSchema(ctx context.Context, db execer, d dbmanager.Dialect, clientID int64) error {
	if d != dbmanager.DialectPostgres {
		return nil
	}
	stmt := "CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(ClientSchemaName(clientID))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("client_id", clientID).Msg("failed to create client schema")
		return err
	}
	return nil
}
