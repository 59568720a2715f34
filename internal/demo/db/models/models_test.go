package models

import (
	"testing"

	"github.com/jackc/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

func TestValidation(t *testing.T) {
	c := &Client{ClientName: "demo", ClientType: types.ClientTypeDemo, HashedClientSecret: "$argon2id$..."}
	assert.NoError(t, V().Struct(c))

	c.ClientType = "PARTNER"
	assert.Error(t, V().Struct(c))

	u := &User{ClientID: 1, Username: "jdoe", EmailAddress: "jdoe@example.com", Role: types.UserRoleMember}
	assert.NoError(t, V().Struct(u))
	u.EmailAddress = "not-an-email"
	assert.Error(t, V().Struct(u))
	u.EmailAddress = "jdoe@example.com"
	u.Role = "GUEST"
	assert.Error(t, V().Struct(u))

	assert.Error(t, V().Struct(&UserTeam{UserID: 1}))
	assert.Error(t, V().Struct(&Vector{ClientID: 1, Vendor: types.VectorVendorRedis, SourceType: "IMAGE", IndexName: "x"}))
}

func TestDatabaseSchemas(t *testing.T) {
	schemas, err := JSONB([]schemaname.Schema{{Name: "connect{{client_id}}", Values: map[string]string{"client_id": "1"}}})
	require.NoError(t, err)
	available, err := JSONB([]string{"public", "connect1"})
	require.NoError(t, err)

	d := &Database{Schemas: schemas, AvailableSchemas: available}
	list, err := d.SchemaList()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "connect{{client_id}}", list[0].Name)
	assert.Equal(t, "1", list[0].Values["client_id"])

	names, err := d.AvailableSchemaList()
	require.NoError(t, err)
	assert.Equal(t, []string{"public", "connect1"}, names)

	empty := &Database{AvailableSchemas: pgtype.JSONB{Status: pgtype.Null}}
	names, err = empty.AvailableSchemaList()
	require.NoError(t, err)
	assert.Nil(t, names)

	null, err := JSONB(nil)
	require.NoError(t, err)
	assert.Equal(t, pgtype.Null, null.Status)
}
