package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
	"github.com/basejump-ai/basejump-demo/internal/demo/service"
	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

func TestStageOrder(t *testing.T) {
	client := clientEnv(t)
	svc, f := newService(cfg)

	withSession(t, client.Env, func(ctx context.Context, sess db.Session) {
		var zero service.Env
		assert.Equal(t, service.Unprovisioned, zero.Stage())

		_, err := svc.ProvisionTeam(ctx, sess, zero, "t", "")
		assert.ErrorIs(t, err, service.ErrStageOrder)
		assert.Equal(t, errkind.Reference, errkind.Classify(err))

		_, err = svc.ProvisionUser(ctx, sess, zero, "u", "u@example.com", types.UserRoleMember)
		assert.ErrorIs(t, err, service.ErrStageOrder)

		_, err = svc.ProvisionConnection(ctx, sess, client.Env, params("stage.example", schemaname.Schema{Name: "sales"}))
		assert.NoError(t, err)

		_, err = svc.LinkConnection(ctx, sess, client.Env)
		assert.ErrorIs(t, err, service.ErrStageOrder)
		_, err = svc.ProvisionChat(ctx, sess, client.Env)
		assert.ErrorIs(t, err, service.ErrStageOrder)
		_, err = svc.Ask(ctx, sess, client.Env, "hi", false)
		assert.ErrorIs(t, err, service.ErrStageOrder)
		assert.Contains(t, err.Error(), service.ChatReady.String())
	})
	assert.Equal(t, 1, f.conn.Calls())
}

func TestStageTransitionsDoNotMutate(t *testing.T) {
	client := clientEnv(t)
	svc := stages.Service()
	withSession(t, client.Env, func(ctx context.Context, sess db.Session) {
		team, err := svc.ProvisionTeam(ctx, sess, client.Env, "staging", "")
		assert.NoError(t, err)
		assert.Equal(t, service.TeamReady, team.Stage())
		assert.NotEqual(t, client.TeamID, team.TeamID)
		assert.Equal(t, service.MembershipLinked, client.Stage())

		user, err := svc.ProvisionUser(ctx, sess, team, "staging_user", "staging@example.com", "")
		assert.NoError(t, err)
		assert.Equal(t, types.UserRoleMember, user.UserRole)
		assert.Equal(t, service.TeamReady, team.Stage())
		assert.Zero(t, team.UserID)
	})
}

func TestStageRewindClearsLaterIdentifiers(t *testing.T) {
	chat := chatEnv(t)
	svc := stages.Service()
	withSession(t, chat.Env, func(ctx context.Context, sess db.Session) {
		team, err := svc.ProvisionTeam(ctx, sess, chat.Env, "rewound", "")
		require.NoError(t, err)
		assert.Equal(t, service.TeamReady, team.Stage())
		assert.Equal(t, chat.ClientID, team.ClientID)
		assert.Zero(t, team.UserID)
		assert.Zero(t, team.UserRole)
		assert.Zero(t, team.Connection)
		assert.Zero(t, team.ChatID)
		assert.Zero(t, team.VectorID)
		assert.Nil(t, team.LastMessage)
		assert.Equal(t, service.ChatReady, chat.Stage())

		n, cerr := sess.CountUserTeam(ctx, chat.UserID, team.TeamID)
		require.NoError(t, cerr)
		assert.Zero(t, n)

		_, err = svc.LinkMembership(ctx, sess, team)
		assert.ErrorIs(t, err, service.ErrStageOrder)
		_, err = svc.LinkConnection(ctx, sess, team)
		assert.ErrorIs(t, err, service.ErrStageOrder)
		_, err = svc.ProvisionChat(ctx, sess, team)
		assert.ErrorIs(t, err, service.ErrStageOrder)

		user, err := svc.ProvisionUser(ctx, sess, team, "rewound_user", "rewound@example.com", types.UserRoleAdmin)
		require.NoError(t, err)
		linked, err := svc.LinkMembership(ctx, sess, user)
		require.NoError(t, err)
		assert.Equal(t, service.MembershipLinked, linked.Stage())
		n, cerr = sess.CountUserTeam(ctx, linked.UserID, linked.TeamID)
		require.NoError(t, cerr)
		assert.Equal(t, 1, n)
	})
}

func TestUserRequiresTeamStage(t *testing.T) {
	svc := stages.Service()
	var env service.Env
	require.NoError(t, db.RunSession(testCtx(), pool, 0, func(ctx context.Context, sess db.Session) error {
		var err error
		env, _, err = svc.ProvisionClient(ctx, sess, "team first", types.ClientTypeDemo, "")
		return err
	}))
	assert.Equal(t, service.ClientReady, env.Stage())

	withSession(t, env, func(ctx context.Context, sess db.Session) {
		_, err := svc.ProvisionUser(ctx, sess, env, "loose_user", "loose@example.com", "")
		assert.ErrorIs(t, err, service.ErrStageOrder)
		assert.Contains(t, err.Error(), service.TeamReady.String())

		user, err := svc.CreateUser(ctx, sess, env.ClientID, "loose_user", "loose@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, types.UserRoleMember, user.Role)
	})
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "Unprovisioned", service.Unprovisioned.String())
	assert.Equal(t, "ChatAnswered", service.ChatAnswered.String())
	assert.Equal(t, "Unknown", service.ProvisioningStage(42).String())
}
