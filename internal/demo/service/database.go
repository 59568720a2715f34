package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/connector"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
	"github.com/basejump-ai/basejump-demo/internal/demo/indexer"
	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
	"github.com/basejump-ai/basejump-demo/internal/demo/secrets"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// ConnParams describe a client data source and the login used to reach it.
type ConnParams struct {
	DatabaseType         types.DatabaseType  `validate:"required,oneof=postgres mysql sqlite"`
	Host                 string              `validate:"required_unless=DatabaseType sqlite"`
	Port                 int                 `validate:"gte=0,lte=65535"`
	DatabaseName         string              `validate:"required"`
	Username             string              `validate:"required_unless=DatabaseType sqlite"`
	Password             string              `validate:"required_unless=DatabaseType sqlite"`
	Schemas              []schemaname.Schema `validate:"-"`
	// AllowedSchemas, when set, limits the rendered schema names before any connection is made.
	AllowedSchemas       []string            `validate:"-"`
	IncludeDefaultSchema bool
	IncludeViews         bool
	SSL                  bool
	DatabaseDesc         string
	DataSourceDesc       string
}

// ConnParamsFromConfig returns the data source configured for a run.
func ConnParamsFromConfig(t config.TargetConfig) ConnParams {
	return ConnParams{
		DatabaseType:         types.DatabaseType(t.DatabaseType),
		Host:                 t.Host,
		Port:                 t.Port,
		DatabaseName:         t.DatabaseName,
		Username:             t.Username,
		Password:             t.Password,
		Schemas:              t.Schemas,
		AllowedSchemas:       t.AllowedSchemas,
		IncludeDefaultSchema: t.IncludeDefaultSchema,
		IncludeViews:         t.IncludeViews,
		SSL:                  t.SSL,
		DatabaseDesc:         t.Description,
		DataSourceDesc:       t.Description,
	}
}

func (p ConnParams) connector() connector.Params {
	return connector.Params{
		DatabaseType: p.DatabaseType,
		Host:         p.Host,
		Port:         p.Port,
		DatabaseName: p.DatabaseName,
		Username:     p.Username,
		Password:     p.Password,
		SSL:          p.SSL,
	}
}

// Login is a set of credentials for an already registered database.
type Login struct {
	Username       string
	Password       string
	DataSourceDesc string
}

// DatabaseConnection identifies a stored data source and login.
type DatabaseConnection struct {
	ConnID   int64                `json:"conn_id"`
	ConnUUID uuid.UUID            `json:"conn_uuid"`
	DBID     int64                `json:"db_id"`
	DBUUID   uuid.UUID            `json:"db_uuid"`
	VectorID int64                `json:"vector_id"`
	Index    *indexer.IndexHandle `json:"index,omitempty"`
}

// AddClientDatabase registers a client data source. The request goes through these checks in
// order, and nothing is stored unless all of them pass:
//  1. schema templates are well formed and render
//  2. schemas are authorized against the configured allow-list, if any
//  3. schemas are authorized against what a previous connection to the same target exposed
//  4. the login connects
//  5. schemas are authorized against what the live target exposes
//  6. the tables are indexed
//
// The vector record, database parameters and connection are then stored in one transaction.
func (s *Service) AddClientDatabase(ctx context.Context, sess db.Session, cu ClientUser, p ConnParams) (dc *DatabaseConnection, err error) {
	defer s.observe("add_client_database", time.Now(), &err)
	ctx = log.Ctx(ctx).With().Int64("client_id", cu.ClientID).Str("host", p.Host).
		Str("database", p.DatabaseName).Logger().WithContext(ctx)

	if s.indexer == nil {
		return nil, ErrNotConfigured.Msg("indexer is not configured")
	}
	if err := validateParams(p); err != nil {
		return nil, err
	}
	requested, err := schemaname.RenderAll(p.Schemas)
	if err != nil {
		log.Ctx(ctx).Info().Err(err).Msg("rejected schema templates")
		return nil, ErrInvalidSchemas.Err(err)
	}
	if len(p.AllowedSchemas) > 0 {
		if err := schemaname.Authorize(requested, p.AllowedSchemas); err != nil {
			log.Ctx(ctx).Info().Err(err).Strs("allowed", p.AllowedSchemas).Msg("schemas not in allow-list")
			return nil, ErrInvalidSchemas.Err(err)
		}
	}
	encryptedPassword, err := secrets.EncryptString(p.Password, s.cfg.Secrets.MasterKey)
	if err != nil {
		return nil, err
	}

	known, err := s.knownDatabase(ctx, sess, cu.ClientID, p)
	if err != nil {
		return nil, err
	}
	if known != nil {
		available, err := known.AvailableSchemaList()
		if err != nil {
			return nil, ErrInvalidInput.Err(err)
		}
		if len(available) > 0 {
			if err := schemaname.Authorize(requested, available); err != nil {
				log.Ctx(ctx).Info().Err(err).Msg("schemas not available on known target")
				return nil, ErrInvalidSchemas.Err(err)
			}
		}
	}

	target, err := s.connector.Connect(ctx, p.connector())
	if err != nil {
		return nil, err
	}
	defer target.Close()
	live, err := target.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	if err := schemaname.Authorize(requested, live); err != nil {
		log.Ctx(ctx).Info().Err(err).Strs("available", live).Msg("schemas not available on target")
		return nil, ErrInvalidSchemas.Err(err)
	}

	dbUUID := uuid.New()
	indexName := types.IndexName(cu.ClientID)
	handle, err := s.indexer.Index(ctx, indexer.IndexRequest{
		ClientID:             cu.ClientID,
		IndexName:            indexName,
		DatabaseUUID:         dbUUID,
		DatabaseType:         p.DatabaseType,
		Schemas:              requested,
		IncludeDefaultSchema: p.IncludeDefaultSchema,
		IncludeViews:         p.IncludeViews,
		Target:               target,
	})
	if err != nil {
		return nil, err
	}

	schemasJSON, err := models.JSONB(p.Schemas)
	if err != nil {
		return nil, ErrInvalidInput.Err(err)
	}
	availableJSON, err := models.JSONB(live)
	if err != nil {
		return nil, ErrInvalidInput.Err(err)
	}
	vector := &models.Vector{
		ClientID:   cu.ClientID,
		Vendor:     handle.Vendor,
		SourceType: types.VectorSourceTable,
		IndexName:  indexName,
	}
	database := &models.Database{
		DBUUID:               dbUUID,
		ClientID:             cu.ClientID,
		DatabaseType:         p.DatabaseType,
		DriverName:           p.DatabaseType.DriverName(),
		Host:                 p.Host,
		Port:                 p.Port,
		DatabaseName:         p.DatabaseName,
		Schemas:              schemasJSON,
		AvailableSchemas:     availableJSON,
		IncludeDefaultSchema: p.IncludeDefaultSchema,
		IncludeViews:         p.IncludeViews,
		SSL:                  p.SSL,
		DatabaseDesc:         p.DatabaseDesc,
	}
	conn := &models.Connection{
		ClientID:       cu.ClientID,
		Username:       p.Username,
		Password:       encryptedPassword,
		DataSourceDesc: p.DataSourceDesc,
	}
	err = sess.InTx(ctx, func(ctx context.Context) error {
		if err := sess.CreateVector(ctx, vector); err != nil {
			return err
		}
		database.VectorID = vector.VectorID
		if err := sess.CreateDatabase(ctx, database); err != nil {
			return err
		}
		conn.DBID = database.DBID
		if err := sess.CreateConnection(ctx, conn); err != nil {
			return err
		}
		if known != nil {
			if err := sess.UpdateAvailableSchemas(ctx, known.DBID, availableJSON); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Int64("db_id", database.DBID).Int64("conn_id", conn.ConnID).Msg("client database added")

	return &DatabaseConnection{
		ConnID:   conn.ConnID,
		ConnUUID: conn.ConnUUID,
		DBID:     database.DBID,
		DBUUID:   database.DBUUID,
		VectorID: vector.VectorID,
		Index:    handle,
	}, nil
}

// CreateDatabaseFromExistingConnection adds another login to an already indexed database.
func (s *Service) CreateDatabaseFromExistingConnection(ctx context.Context, sess db.Session, cu ClientUser, dbID int64, login Login) (dc *DatabaseConnection, err error) {
	defer s.observe("create_database_from_existing_connection", time.Now(), &err)

	database, errdb := sess.GetDatabase(ctx, dbID)
	if errdb != nil {
		return nil, reference(errdb)
	}
	if database.ClientID != cu.ClientID {
		return nil, ErrReference.Msg("database belongs to another client")
	}
	templates, err := database.SchemaList()
	if err != nil {
		return nil, ErrInvalidInput.Err(err)
	}
	requested, err := schemaname.RenderAll(templates)
	if err != nil {
		return nil, ErrInvalidSchemas.Err(err)
	}
	p := ConnParams{
		DatabaseType: database.DatabaseType,
		Host:         database.Host,
		Port:         database.Port,
		DatabaseName: database.DatabaseName,
		Username:     login.Username,
		Password:     login.Password,
		SSL:          database.SSL,
	}
	if err := validateParams(p); err != nil {
		return nil, err
	}
	encryptedPassword, err := secrets.EncryptString(login.Password, s.cfg.Secrets.MasterKey)
	if err != nil {
		return nil, err
	}

	target, err := s.connector.Connect(ctx, p.connector())
	if err != nil {
		return nil, err
	}
	defer target.Close()
	live, err := target.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	if err := schemaname.Authorize(requested, live); err != nil {
		return nil, ErrInvalidSchemas.Err(err)
	}
	availableJSON, err := models.JSONB(live)
	if err != nil {
		return nil, ErrInvalidInput.Err(err)
	}

	conn := &models.Connection{
		ClientID:       cu.ClientID,
		DBID:           database.DBID,
		Username:       login.Username,
		Password:       encryptedPassword,
		DataSourceDesc: login.DataSourceDesc,
	}
	err = sess.InTx(ctx, func(ctx context.Context) error {
		if err := sess.UpdateAvailableSchemas(ctx, database.DBID, availableJSON); err != nil {
			return err
		}
		if err := sess.CreateConnection(ctx, conn); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DatabaseConnection{
		ConnID:   conn.ConnID,
		ConnUUID: conn.ConnUUID,
		DBID:     database.DBID,
		DBUUID:   database.DBUUID,
		VectorID: database.VectorID,
	}, nil
}

// knownDatabase returns the latest record of the same target, or nil when there is none.
func (s *Service) knownDatabase(ctx context.Context, sess db.Session, clientID int64, p ConnParams) (*models.Database, error) {
	known, err := sess.FindDatabase(ctx, clientID, p.DatabaseType, p.Host, p.Port, p.DatabaseName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return known, nil
}

func validateParams(p ConnParams) error {
	if err := models.V().Struct(p); err != nil {
		return ErrInvalidInput.Err(err)
	}
	return nil
}
