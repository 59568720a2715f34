package sqlstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dberror"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// CreateDatabase inserts the parameters of a client data source.
func (s *Store) CreateDatabase(ctx context.Context, d *models.Database) apperrors.Error {
	if err := validate(ctx, d); err != nil {
		return err
	}
	if err := s.checkClient(ctx, d.ClientID); err != nil {
		return err
	}
	if d.DBUUID == uuid.Nil {
		d.DBUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "database_params", "db_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO database_params (db_id, db_uuid, client_id, database_type, drivername, host, port, database_name,
				schemas, available_schemas, include_default_schema, include_views, ssl, database_desc, vector_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
		`
		if err := s.insert(ctx, q, "database", query, id, d.DBUUID, d.ClientID, string(d.DatabaseType), d.DriverName, d.Host,
			d.Port, d.DatabaseName, jsonArg(d.Schemas), jsonArg(d.AvailableSchemas), d.IncludeDefaultSchema, d.IncludeViews, d.SSL,
			d.DatabaseDesc, d.VectorID); err != nil {
			return err
		}
		d.DBID = id
		log.Ctx(ctx).Info().Int64("db_id", id).Str("host", d.Host).Str("database", d.DatabaseName).Msg("database created")
		return nil
	})
}

const databaseColumns = `
	SELECT d.db_id, d.db_uuid, d.client_id, d.database_type, d.drivername, d.host, d.port, d.database_name, d.schemas,
		d.available_schemas, d.include_default_schema, d.include_views, d.ssl, d.database_desc, d.vector_id
	FROM database_params d`

func databaseDest(d *models.Database) []any {
	return []any{&d.DBID, &d.DBUUID, &d.ClientID, &d.DatabaseType, &d.DriverName, &d.Host, &d.Port, &d.DatabaseName,
		&d.Schemas, &d.AvailableSchemas, &d.IncludeDefaultSchema, &d.IncludeViews, &d.SSL, &d.DatabaseDesc, &d.VectorID}
}

func (s *Store) GetDatabase(ctx context.Context, dbID int64) (*models.Database, apperrors.Error) {
	query, args := s.scoped(databaseColumns+" WHERE d.db_id = $1", "d.client_id", []any{dbID})
	var d models.Database
	if errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(databaseDest(&d)...); errdb != nil {
		return nil, notFound(ctx, errdb, "database")
	}
	return &d, nil
}

// FindDatabase returns the most recent database record of the client for the same target.
func (s *Store) FindDatabase(ctx context.Context, clientID int64, dbType types.DatabaseType, host string, port int, name string) (*models.Database, apperrors.Error) {
	query := databaseColumns + `
		WHERE d.client_id = $1 AND d.database_type = $2 AND d.host = $3 AND d.port = $4 AND d.database_name = $5
		ORDER BY d.db_id DESC
		LIMIT 1;`
	var d models.Database
	errdb := s.q().QueryRowContext(ctx, s.rebind(query), clientID, string(dbType), host, port, name).Scan(databaseDest(&d)...)
	if errdb != nil {
		return nil, notFound(ctx, errdb, "database")
	}
	return &d, nil
}

// UpdateAvailableSchemas records the schema names a target exposed on its latest successful connection.
func (s *Store) UpdateAvailableSchemas(ctx context.Context, dbID int64, available pgtype.JSONB) apperrors.Error {
	return s.withTx(ctx, func(q querier) apperrors.Error {
		query := `UPDATE database_params SET available_schemas = $1 WHERE db_id = $2;`
		res, errdb := q.ExecContext(ctx, s.rebind(query), jsonArg(available), dbID)
		if errdb != nil {
			log.Ctx(ctx).Error().Err(errdb).Int64("db_id", dbID).Msg("failed to update available schemas")
			return dberror.ErrDatabase.Err(errdb)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return dberror.ErrNotFound.Msg("database not found")
		}
		return nil
	})
}

// CreateConnection inserts a login for a database. The password must already be encrypted.
func (s *Store) CreateConnection(ctx context.Context, c *models.Connection) apperrors.Error {
	if err := validate(ctx, c); err != nil {
		return err
	}
	if err := s.checkClient(ctx, c.ClientID); err != nil {
		return err
	}
	if c.ConnUUID == uuid.Nil {
		c.ConnUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "connections", "conn_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO connections (conn_id, conn_uuid, client_id, db_id, username, password, data_source_desc)
			VALUES ($1, $2, $3, $4, $5, $6, $7);
		`
		if err := s.insert(ctx, q, "connection", query, id, c.ConnUUID, c.ClientID, c.DBID, c.Username, c.Password,
			c.DataSourceDesc); err != nil {
			return err
		}
		c.ConnID = id
		log.Ctx(ctx).Info().Int64("conn_id", id).Int64("db_id", c.DBID).Msg("connection created")
		return nil
	})
}

const connectionColumns = `
	SELECT c.conn_id, c.conn_uuid, c.client_id, c.db_id, c.username, c.password, c.data_source_desc,
		d.db_id, d.db_uuid, d.client_id, d.database_type, d.drivername, d.host, d.port, d.database_name, d.schemas,
		d.available_schemas, d.include_default_schema, d.include_views, d.ssl, d.database_desc, d.vector_id
	FROM connections c
	JOIN database_params d ON d.db_id = c.db_id`

func connectionDest(c *models.ConnectionDetail) []any {
	return append([]any{&c.ConnID, &c.ConnUUID, &c.ClientID, &c.DBID, &c.Username, &c.Password, &c.DataSourceDesc},
		databaseDest(&c.Database)...)
}

func (s *Store) getConnection(ctx context.Context, where string, arg any) (*models.ConnectionDetail, apperrors.Error) {
	query, args := s.scoped(connectionColumns+" WHERE "+where, "c.client_id", []any{arg})
	var c models.ConnectionDetail
	if errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(connectionDest(&c)...); errdb != nil {
		return nil, notFound(ctx, errdb, "connection")
	}
	return &c, nil
}

func (s *Store) GetConnection(ctx context.Context, connUUID uuid.UUID) (*models.ConnectionDetail, apperrors.Error) {
	return s.getConnection(ctx, "c.conn_uuid = $1", connUUID)
}

func (s *Store) GetConnectionByID(ctx context.Context, connID int64) (*models.ConnectionDetail, apperrors.Error) {
	return s.getConnection(ctx, "c.conn_id = $1", connID)
}

// GetConnectionsForTeam lists the connections shared with a team the user belongs to.
func (s *Store) GetConnectionsForTeam(ctx context.Context, userID, teamID int64) ([]models.ConnectionDetail, apperrors.Error) {
	query := connectionColumns + `
		WHERE c.conn_id IN (SELECT ct.conn_id FROM conn_team_associations ct WHERE ct.team_id = $1)
		AND EXISTS (SELECT 1 FROM user_team_associations ut WHERE ut.user_id = $2 AND ut.team_id = $1)`
	query, args := s.scoped(query, "c.client_id", []any{teamID, userID})
	query += " ORDER BY c.conn_id;"
	rows, errdb := s.q().QueryContext(ctx, s.rebind(query), args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Int64("team_id", teamID).Msg("failed to list connections")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()
	return scanConnections(ctx, rows)
}

func scanConnections(ctx context.Context, rows *sql.Rows) ([]models.ConnectionDetail, apperrors.Error) {
	var conns []models.ConnectionDetail
	for rows.Next() {
		var c models.ConnectionDetail
		if errdb := rows.Scan(connectionDest(&c)...); errdb != nil {
			log.Ctx(ctx).Error().Err(errdb).Msg("failed to scan connection")
			return nil, dberror.ErrDatabase.Err(errdb)
		}
		conns = append(conns, c)
	}
	if errdb := rows.Err(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to read connections")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return conns, nil
}
