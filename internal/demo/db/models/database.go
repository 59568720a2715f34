package models

import (
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	jsoniter "github.com/json-iterator/go"

	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

/*
 database_params
   schemas           | jsonb | requested schema templates [{schema_nm, jinja_values}]
   available_schemas | jsonb | schema names the target exposed on the last successful connect
*/

type Database struct {
	DBID                 int64              `db:"db_id"`
	DBUUID               uuid.UUID          `db:"db_uuid"`
	ClientID             int64              `db:"client_id" validate:"required"`
	DatabaseType         types.DatabaseType `db:"database_type" validate:"required,oneof=postgres mysql sqlite"`
	DriverName           string             `db:"drivername" validate:"required"`
	Host                 string             `db:"host"`
	Port                 int                `db:"port" validate:"gte=0,lte=65535"`
	DatabaseName         string             `db:"database_name" validate:"required"`
	Schemas              pgtype.JSONB       `db:"schemas"`
	AvailableSchemas     pgtype.JSONB       `db:"available_schemas"`
	IncludeDefaultSchema bool               `db:"include_default_schema"`
	IncludeViews         bool               `db:"include_views"`
	SSL                  bool               `db:"ssl"`
	DatabaseDesc         string             `db:"database_desc"`
	VectorID             int64              `db:"vector_id" validate:"required"`
}

func (d *Database) SchemaList() ([]schemaname.Schema, error) {
	var schemas []schemaname.Schema
	if err := decodeJSONB(d.Schemas, &schemas); err != nil {
		return nil, err
	}
	return schemas, nil
}

func (d *Database) AvailableSchemaList() ([]string, error) {
	var names []string
	if err := decodeJSONB(d.AvailableSchemas, &names); err != nil {
		return nil, err
	}
	return names, nil
}

type Connection struct {
	ConnID         int64     `db:"conn_id"`
	ConnUUID       uuid.UUID `db:"conn_uuid"`
	ClientID       int64     `db:"client_id" validate:"required"`
	DBID           int64     `db:"db_id" validate:"required"`
	Username       string    `db:"username"`
	Password       string    `db:"password" validate:"required"`
	DataSourceDesc string    `db:"data_source_desc"`
}

// ConnectionDetail is a connection joined with the database it reaches.
type ConnectionDetail struct {
	Connection
	Database Database
}

type Vector struct {
	VectorID   int64                  `db:"vector_id"`
	VectorUUID uuid.UUID              `db:"vector_uuid"`
	ClientID   int64                  `db:"client_id" validate:"required"`
	Vendor     types.VectorVendor     `db:"vector_database_vendor" validate:"required"`
	SourceType types.VectorSourceType `db:"vector_datasource_type" validate:"required,oneof=CHAT TABLE"`
	IndexName  string                 `db:"index_name" validate:"required"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONB encodes v for a json column. A nil v is stored as SQL NULL.
func JSONB(v any) (pgtype.JSONB, error) {
	if v == nil {
		return pgtype.JSONB{Status: pgtype.Null}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return pgtype.JSONB{}, err
	}
	return pgtype.JSONB{Bytes: b, Status: pgtype.Present}, nil
}

func decodeJSONB(j pgtype.JSONB, v any) error {
	if j.Status != pgtype.Present || len(j.Bytes) == 0 {
		return nil
	}
	return json.Unmarshal(j.Bytes, v)
}
