package fixture

import (
	"context"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/service"
	"github.com/basejump-ai/basejump-demo/internal/demo/testutil"
)

func newStages(t *testing.T) *Stages {
	t.Helper()
	cfg := testutil.Config(t.TempDir())
	ctx := log.Logger.WithContext(context.Background())
	pool, err := db.NewPool(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	svc := service.New(cfg, service.Deps{
		Connector: testutil.NewFakeConnector(),
		Indexer:   testutil.NewFakeIndexer(),
		Engine:    testutil.NewFakeEngine(),
	})
	return New(pool, svc, cfg)
}

func TestStages(t *testing.T) {
	s := newStages(t)
	ctx := log.Logger.WithContext(context.Background())

	answered, err := s.AnswerInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.ChatAnswered, answered.Stage())
	require.NotNil(t, answered.LastMessage)

	chat, err := s.ChatInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.ChatReady, chat.Stage())
	assert.NotZero(t, chat.ChatID)
	assert.Equal(t, chat.ChatID, answered.ChatID)
	assert.Nil(t, chat.LastMessage)

	client, err := s.ClientInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.MembershipLinked, client.Stage())
	require.NotNil(t, client.Credentials)
	assert.Equal(t, client.ClientID, chat.ClientID)

	dbEnv, err := s.DBInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.ConnectionLinked, dbEnv.Stage())
	assert.Equal(t, dbEnv.Connection, chat.Connection)

	again, err := s.ClientInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.Env, again.Env)
	twice, err := s.AnswerInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, answered.Env, twice.Env)

	err = s.WithSession(ctx, chat.Env, func(ctx context.Context, sess db.Session) error {
		c, err := s.Service().GetChat(ctx, sess, chat.ChatUUID, chat.UserID)
		if err != nil {
			return err
		}
		assert.Equal(t, chat.VectorID, c.VectorID)
		msgs, err := s.Service().GetMessages(ctx, sess, chat.ChatID)
		if err != nil {
			return err
		}
		require.Len(t, msgs, 1)
		assert.Equal(t, answered.LastMessage.MsgUUID, msgs[0].MsgUUID)
		assert.Equal(t, s.cfg.Demo.Prompt, msgs[0].Prompt)
		return nil
	})
	assert.NoError(t, err)
	requests, returns := s.Pool().Stats()
	assert.Equal(t, requests, returns)
}
