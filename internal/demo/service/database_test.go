package service_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/connector"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dberror"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
	"github.com/basejump-ai/basejump-demo/internal/demo/secrets"
	"github.com/basejump-ai/basejump-demo/internal/demo/service"
	"github.com/basejump-ai/basejump-demo/internal/demo/testutil"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

func params(host string, schemas ...schemaname.Schema) service.ConnParams {
	p := service.ConnParamsFromConfig(cfg.Target)
	p.Host = host
	p.Schemas = schemas
	return p
}

func assertNotStored(t *testing.T, ctx context.Context, sess db.Session, clientID int64, p service.ConnParams) {
	t.Helper()
	_, err := sess.FindDatabase(ctx, clientID, p.DatabaseType, p.Host, p.Port, p.DatabaseName)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestAddClientDatabase(t *testing.T) {
	env := dbEnv(t)
	assert.Equal(t, service.ConnectionLinked, env.Stage())
	dc := env.Connection
	assert.NotZero(t, dc.ConnID)
	assert.NotZero(t, dc.VectorID)
	require.NotNil(t, dc.Index)
	assert.Equal(t, types.IndexName(env.ClientID), dc.Index.IndexName)
	assert.Equal(t, 2, dc.Index.Tables)

	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		conn, err := sess.GetConnectionByID(ctx, dc.ConnID)
		require.NoError(t, err)
		assert.Equal(t, dc.DBID, conn.Database.DBID)
		assert.Equal(t, dc.VectorID, conn.Database.VectorID)
		assert.NotEqual(t, cfg.Target.Password, conn.Password)
		plain, derr := secrets.DecryptString(conn.Password, cfg.Secrets.MasterKey)
		require.NoError(t, derr)
		assert.Equal(t, cfg.Target.Password, plain)

		available, aerr := conn.Database.AvailableSchemaList()
		require.NoError(t, aerr)
		assert.ElementsMatch(t, []string{"public", "sales", "connect1"}, available)

		vector, err := sess.GetVector(ctx, dc.VectorID)
		require.NoError(t, err)
		assert.Equal(t, types.VectorSourceTable, vector.SourceType)

		conns, lerr := stages.Service().GetConnections(ctx, sess, env.UserID, env.TeamID)
		require.NoError(t, lerr)
		require.Len(t, conns, 1)
		assert.Equal(t, dc.ConnUUID, conns[0].ConnUUID)
	})
}

func TestAddClientDatabaseInvalidSchemas(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	names := []string{"{hey there}}", "hey there}}", "{{hey there}", "{{hey there", "{{}}", "}}hey there{{"}
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		for _, name := range names {
			p := params("invalid.example", schemaname.Schema{Name: name})
			_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
			assert.ErrorIs(t, err, service.ErrInvalidSchemas, name)
			assert.Equal(t, errkind.Validation, errkind.Classify(err), name)
		}
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(),
			params("invalid.example", schemaname.Schema{Name: "tenant_{{region}}"}))
		assert.ErrorIs(t, err, service.ErrInvalidSchemas, "placeholder without a value")
		assertNotStored(t, ctx, sess, env.ClientID, params("invalid.example"))
	})
	assert.Zero(t, f.conn.Calls())
	assert.Zero(t, f.idx.Count())
}

func TestAddClientDatabaseUnauthorizedKnownTarget(t *testing.T) {
	env := dbEnv(t)
	svc, f := newService(cfg)
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params(cfg.Target.Host, schemaname.Schema{Name: "payroll"})
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.ErrorIs(t, err, service.ErrInvalidSchemas)
		assert.ErrorIs(t, err, schemaname.ErrUnknownSchema)
	})
	assert.Zero(t, f.conn.Calls(), "a known target is not contacted")
}

func TestAddClientDatabaseUnauthorizedLiveTarget(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("fresh.example", schemaname.Schema{Name: "payroll"})
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.ErrorIs(t, err, service.ErrInvalidSchemas)
		assertNotStored(t, ctx, sess, env.ClientID, p)
	})
	assert.Equal(t, 1, f.conn.Calls())
	assert.Zero(t, f.idx.Count())
}

func TestAddClientDatabaseAllowList(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("allowlist.example", schemaname.Schema{Name: "payroll"})
		p.AllowedSchemas = []string{"sales"}
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.ErrorIs(t, err, service.ErrInvalidSchemas)
		assert.ErrorIs(t, err, schemaname.ErrUnknownSchema)
		assertNotStored(t, ctx, sess, env.ClientID, p)
	})
	assert.Zero(t, f.conn.Calls())
	assert.Zero(t, f.idx.Count())

	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("allowlist.example", schemaname.Schema{Name: "sales"})
		p.AllowedSchemas = []string{"sales"}
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.NoError(t, err)
	})
	assert.Equal(t, 1, f.conn.Calls())
}

func TestAddClientDatabaseWrongPassword(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("creds.example", schemaname.Schema{Name: "sales"})
		p.Password = testutil.WrongPassword
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.ErrorIs(t, err, service.ErrConnectDB)
		assert.NotErrorIs(t, err, service.ErrConnectNetwork)
		assert.Equal(t, errkind.Connection, errkind.Classify(err))
		assertNotStored(t, ctx, sess, env.ClientID, p)
	})
	assert.Zero(t, f.idx.Count())
}

func TestAddClientDatabaseUnreachable(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	f.conn.Err = connector.ErrConnectNetwork.Err(errors.New("connection refused"))
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("down.example", schemaname.Schema{Name: "sales"})
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.ErrorIs(t, err, service.ErrConnectNetwork)
		assertNotStored(t, ctx, sess, env.ClientID, p)
	})
}

func TestAddClientDatabaseIndexerFailure(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	indexErr := errors.New("vector store unavailable")
	f.idx.Err = indexErr
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("index.example", schemaname.Schema{Name: "sales"})
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.Equal(t, indexErr, err)
		assert.Equal(t, errkind.Engine, errkind.Classify(err))
		assertNotStored(t, ctx, sess, env.ClientID, p)
	})
}

func TestAddClientDatabaseSchemaTemplates(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("jinja.example", schemaname.Schema{Name: "connect{{client_id}}", Values: map[string]string{"client_id": "1"}})
		p.IncludeDefaultSchema = false
		dc, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		require.NoError(t, err)

		m := f.idx.Manifests[dc.DBUUID]
		require.NotNil(t, m)
		assert.Equal(t, []string{"connect1"}, m.Schemas)

		database, derr := sess.GetDatabase(ctx, dc.DBID)
		require.NoError(t, derr)
		stored, serr := database.SchemaList()
		require.NoError(t, serr)
		assert.Equal(t, p.Schemas, stored)
	})
}

func TestAddClientDatabaseValidation(t *testing.T) {
	env := clientEnv(t)
	svc, f := newService(cfg)
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		p := params("valid.example")
		p.DatabaseType = "oracle"
		_, err := svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		p = params("valid.example")
		p.DatabaseName = ""
		_, err = svc.AddClientDatabase(ctx, sess, env.ClientUser(), p)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
	assert.Zero(t, f.conn.Calls())
}

func TestCreateDatabaseFromExistingConnection(t *testing.T) {
	env := dbEnv(t)
	svc, f := newService(cfg)
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		dc, err := svc.CreateDatabaseFromExistingConnection(ctx, sess, env.ClientUser(), env.Connection.DBID,
			service.Login{Username: "second_reader", Password: "another-password"})
		require.NoError(t, err)
		assert.Equal(t, env.Connection.DBID, dc.DBID)
		assert.Equal(t, env.Connection.VectorID, dc.VectorID)
		assert.NotEqual(t, env.Connection.ConnID, dc.ConnID)

		conn, gerr := sess.GetConnection(ctx, dc.ConnUUID)
		require.NoError(t, gerr)
		assert.Equal(t, "second_reader", conn.Username)

		_, err = svc.CreateDatabaseFromExistingConnection(ctx, sess, env.ClientUser(), env.Connection.DBID,
			service.Login{Username: "second_reader", Password: testutil.WrongPassword})
		assert.ErrorIs(t, err, service.ErrConnectDB)

		_, err = svc.CreateDatabaseFromExistingConnection(ctx, sess, env.ClientUser(), env.Connection.DBID+1000,
			service.Login{Username: "x", Password: "y"})
		assert.ErrorIs(t, err, service.ErrReference)
	})
	assert.Equal(t, 2, f.conn.Calls())
}

func TestAddConnectionToTeam(t *testing.T) {
	env := dbEnv(t)
	svc := stages.Service()
	withSession(t, env.Env, func(ctx context.Context, sess db.Session) {
		err := svc.AddConnectionToTeam(ctx, sess, env.ClientID, env.TeamID, env.Connection.ConnID+1000)
		assert.ErrorIs(t, err, service.ErrReference)
		err = svc.AddConnectionToTeam(ctx, sess, env.ClientID, env.TeamID+1000, env.Connection.ConnID)
		assert.ErrorIs(t, err, service.ErrReference)

		team, err := svc.CreateTeam(ctx, sess, env.ClientID, "finance", "")
		require.NoError(t, err)
		conns, lerr := svc.GetConnections(ctx, sess, env.UserID, team.TeamID)
		require.NoError(t, lerr)
		assert.Empty(t, conns, "user is not a member of the team")

		require.NoError(t, svc.AddConnectionToTeam(ctx, sess, env.ClientID, team.TeamID, env.Connection.ConnID))
		require.NoError(t, svc.AddUserToTeam(ctx, sess, env.UserID, team.TeamID))
		conns, lerr = svc.GetConnections(ctx, sess, env.UserID, team.TeamID)
		require.NoError(t, lerr)
		assert.Len(t, conns, 1)
	})
}
