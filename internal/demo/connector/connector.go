// Package connector tests client data source credentials and reads the schema catalog the
// login is allowed to see.
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// Params are the coordinates and login of a client data source.
type Params struct {
	DatabaseType types.DatabaseType
	Host         string
	Port         int
	DatabaseName string
	Username     string
	Password     string
	SSL          bool
}

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Table struct {
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	IsView  bool     `json:"is_view,omitempty"`
	Columns []Column `json:"columns"`
}

// Target is a live connection to a client data source.
type Target interface {
	// ListSchemas returns the schemas the login may use.
	ListSchemas(ctx context.Context) ([]string, error)
	// ListTables returns the tables, and views when includeViews is set, of the given schemas.
	ListTables(ctx context.Context, schemas []string, includeViews bool) ([]Table, error)
	Close() error
}

type Connector interface {
	Connect(ctx context.Context, p Params) (Target, error)
}

// SQLConnector connects through database/sql.
type SQLConnector struct {
	Timeout time.Duration
}

func New() *SQLConnector {
	return &SQLConnector{Timeout: 10 * time.Second}
}

// DSN renders the driver specific data source name.
func DSN(p Params) (string, error) {
	switch p.DatabaseType {
	case types.DatabaseTypePostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.Username, p.Password),
			Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
			Path:   "/" + p.DatabaseName,
		}
		q := url.Values{}
		if p.SSL {
			q.Set("sslmode", "require")
		} else {
			q.Set("sslmode", "disable")
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	case types.DatabaseTypeMySQL:
		cfg := mysql.NewConfig()
		cfg.User = p.Username
		cfg.Passwd = p.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
		cfg.DBName = p.DatabaseName
		if p.SSL {
			cfg.TLSConfig = "true"
		}
		return cfg.FormatDSN(), nil
	case types.DatabaseTypeSQLite:
		return "file:" + p.DatabaseName + "?mode=ro", nil
	}
	return "", ErrUnsupported.Msg(fmt.Sprintf("unsupported database type %q", p.DatabaseType))
}

// Connect opens the data source and proves the login with a ping.
func (c *SQLConnector) Connect(ctx context.Context, p Params) (Target, error) {
	dsn, err := DSN(p)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(p.DatabaseType.DriverName(), dsn)
	if err != nil {
		return nil, ErrConnectNetwork.Err(err)
	}
	db.SetMaxOpenConns(2)
	pingCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		appErr := classify(err)
		log.Ctx(ctx).Info().Err(err).Str("host", p.Host).Str("database", p.DatabaseName).Msg(appErr.Error())
		return nil, appErr
	}
	return &sqlTarget{db: db, dbType: p.DatabaseType}, nil
}

type sqlTarget struct {
	db     *sql.DB
	dbType types.DatabaseType
}

func (t *sqlTarget) Close() error {
	return t.db.Close()
}

const (
	pgSchemasQuery = `
		SELECT nspname FROM pg_catalog.pg_namespace
		WHERE has_schema_privilege(nspname, 'USAGE')
		AND nspname NOT LIKE 'pg\_%' AND nspname <> 'information_schema'
		ORDER BY nspname`
	mysqlSchemasQuery = `
		SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
		ORDER BY schema_name`
	sqliteSchemasQuery = `SELECT name FROM pragma_database_list ORDER BY seq`
)

func (t *sqlTarget) ListSchemas(ctx context.Context) ([]string, error) {
	var query string
	switch t.dbType {
	case types.DatabaseTypePostgres:
		query = pgSchemasQuery
	case types.DatabaseTypeMySQL:
		query = mysqlSchemasQuery
	default:
		query = sqliteSchemasQuery
	}
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, ErrIntrospect.Err(err)
	}
	defer rows.Close()
	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ErrIntrospect.Err(err)
		}
		schemas = append(schemas, name)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrIntrospect.Err(err)
	}
	return schemas, nil
}

func (t *sqlTarget) ListTables(ctx context.Context, schemas []string, includeViews bool) ([]Table, error) {
	if len(schemas) == 0 {
		return nil, nil
	}
	if t.dbType == types.DatabaseTypeSQLite {
		return t.listSqliteTables(ctx, includeViews)
	}
	marks := make([]string, len(schemas))
	args := make([]any, len(schemas))
	for i, s := range schemas {
		if t.dbType == types.DatabaseTypePostgres {
			marks[i] = "$" + strconv.Itoa(i+1)
		} else {
			marks[i] = "?"
		}
		args[i] = s
	}
	query := `
		SELECT c.table_schema, c.table_name, t.table_type, c.column_name, c.data_type
		FROM information_schema.columns c
		JOIN information_schema.tables t ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema IN (` + strings.Join(marks, ", ") + `)
		ORDER BY c.table_schema, c.table_name, c.ordinal_position`
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ErrIntrospect.Err(err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var schema, name, tableType, column, dataType string
		if err := rows.Scan(&schema, &name, &tableType, &column, &dataType); err != nil {
			return nil, ErrIntrospect.Err(err)
		}
		isView := strings.Contains(strings.ToUpper(tableType), "VIEW")
		if isView && !includeViews {
			continue
		}
		if n := len(tables); n == 0 || tables[n-1].Schema != schema || tables[n-1].Name != name {
			tables = append(tables, Table{Schema: schema, Name: name, IsView: isView})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, Column{Name: column, Type: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, ErrIntrospect.Err(err)
	}
	return tables, nil
}

func (t *sqlTarget) listSqliteTables(ctx context.Context, includeViews bool) ([]Table, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)
	if err != nil {
		return nil, ErrIntrospect.Err(err)
	}
	var tables []Table
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			rows.Close()
			return nil, ErrIntrospect.Err(err)
		}
		if kind == "view" && !includeViews {
			continue
		}
		tables = append(tables, Table{Schema: "main", Name: name, IsView: kind == "view"})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, ErrIntrospect.Err(err)
	}

	for i := range tables {
		cols, err := t.db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, tables[i].Name)
		if err != nil {
			return nil, ErrIntrospect.Err(err)
		}
		for cols.Next() {
			var c Column
			if err := cols.Scan(&c.Name, &c.Type); err != nil {
				cols.Close()
				return nil, ErrIntrospect.Err(err)
			}
			tables[i].Columns = append(tables[i].Columns, c)
		}
		cols.Close()
	}
	return tables, nil
}
