package dbmanager

import (
	"regexp"
	"strings"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var placeholderRegex = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites $n placeholders for the dialect. Queries are written with $n.
func (d Dialect) Rebind(query string) string {
	if d == DialectSQLite {
		return placeholderRegex.ReplaceAllString(query, "?$1")
	}
	return query
}

var (
	postgresTypes = strings.NewReplacer(
		"{{uuid}}", "UUID",
		"{{json}}", "JSONB",
		"{{ts}}", "TIMESTAMPTZ",
		"{{bigint}}", "BIGINT",
	)
	sqliteTypes = strings.NewReplacer(
		"{{uuid}}", "TEXT",
		"{{json}}", "TEXT",
		"{{ts}}", "TIMESTAMP",
		"{{bigint}}", "INTEGER",
	)
)

// DDL replaces the portable column type tokens in a statement.
func (d Dialect) DDL(stmt string) string {
	if d == DialectSQLite {
		return sqliteTypes.Replace(stmt)
	}
	return postgresTypes.Replace(stmt)
}
