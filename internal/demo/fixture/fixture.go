// Package fixture provisions a client, a data source, a chat and its first answer once per test
// binary, each stage built on the record of the previous one, and opens a fresh session for
// every test.
package fixture

import (
	"context"
	"sync"

	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/service"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// ClientEnv is a client with a team and a user that belongs to it.
type ClientEnv struct {
	service.Env
	Credentials *service.ClientCredentials
}

// DBEnv adds a connected, indexed data source shared with the team.
type DBEnv struct {
	service.Env
}

// ChatEnv adds a chat. It is empty when provisioned; AnswerInit later answers the configured
// prompt in it.
type ChatEnv struct {
	service.Env
}

// AnsweredEnv holds the chat of ChatEnv after the configured prompt was answered.
type AnsweredEnv struct {
	service.Env
}

type Stages struct {
	pool *db.Pool
	svc  *service.Service
	cfg  *config.Config

	clientOnce sync.Once
	client     ClientEnv
	clientErr  error

	dbOnce sync.Once
	dbEnv  DBEnv
	dbErr  error

	chatOnce sync.Once
	chat     ChatEnv
	chatErr  error

	answerOnce sync.Once
	answered   AnsweredEnv
	answerErr  error
}

func New(pool *db.Pool, svc *service.Service, cfg *config.Config) *Stages {
	return &Stages{pool: pool, svc: svc, cfg: cfg}
}

// ClientInit provisions the client stage once; later calls return the same record.
func (s *Stages) ClientInit(ctx context.Context) (ClientEnv, error) {
	s.clientOnce.Do(func() {
		var (
			env   service.Env
			creds *service.ClientCredentials
		)
		err := db.RunSession(ctx, s.pool, 0, func(ctx context.Context, sess db.Session) error {
			var err error
			env, creds, err = s.svc.ProvisionClient(ctx, sess, s.cfg.Demo.ClientName, types.ClientTypeDemo, "test client")
			return err
		})
		if err != nil {
			s.clientErr = err
			return
		}
		err = db.RunSession(ctx, s.pool, env.ClientID, func(ctx context.Context, sess db.Session) error {
			var err error
			if env, err = s.svc.ProvisionTeam(ctx, sess, env, s.cfg.Demo.TeamName, "test team"); err != nil {
				return err
			}
			if env, err = s.svc.ProvisionUser(ctx, sess, env, s.cfg.Demo.Username, s.cfg.Demo.Email, types.UserRoleAdmin); err != nil {
				return err
			}
			env, err = s.svc.LinkMembership(ctx, sess, env)
			return err
		})
		s.client, s.clientErr = ClientEnv{Env: env, Credentials: creds}, err
	})
	return s.client, s.clientErr
}

// DBInit adds the configured data source to the client stage.
func (s *Stages) DBInit(ctx context.Context) (DBEnv, error) {
	s.dbOnce.Do(func() {
		client, err := s.ClientInit(ctx)
		if err != nil {
			s.dbErr = err
			return
		}
		env := client.Env
		s.dbErr = s.WithSession(ctx, env, func(ctx context.Context, sess db.Session) error {
			var err error
			if env, err = s.svc.ProvisionConnection(ctx, sess, env, service.ConnParamsFromConfig(s.cfg.Target)); err != nil {
				return err
			}
			env, err = s.svc.LinkConnection(ctx, sess, env)
			return err
		})
		s.dbEnv = DBEnv{Env: env}
	})
	return s.dbEnv, s.dbErr
}

// ChatInit opens a chat on top of the data source stage.
func (s *Stages) ChatInit(ctx context.Context) (ChatEnv, error) {
	s.chatOnce.Do(func() {
		dbEnv, err := s.DBInit(ctx)
		if err != nil {
			s.chatErr = err
			return
		}
		env := dbEnv.Env
		s.chatErr = s.WithSession(ctx, env, func(ctx context.Context, sess db.Session) error {
			var err error
			env, err = s.svc.ProvisionChat(ctx, sess, env)
			return err
		})
		s.chat = ChatEnv{Env: env}
	})
	return s.chat, s.chatErr
}

// AnswerInit asks cfg.Demo.Prompt in the chat stage's chat.
func (s *Stages) AnswerInit(ctx context.Context) (AnsweredEnv, error) {
	s.answerOnce.Do(func() {
		chat, err := s.ChatInit(ctx)
		if err != nil {
			s.answerErr = err
			return
		}
		env := chat.Env
		s.answerErr = s.WithSession(ctx, env, func(ctx context.Context, sess db.Session) error {
			var err error
			env, err = s.svc.Ask(ctx, sess, env, s.cfg.Demo.Prompt, true)
			return err
		})
		s.answered = AnsweredEnv{Env: env}
	})
	return s.answered, s.answerErr
}

// WithSession runs fn on a new session bound to the env's client and closes it afterwards.
func (s *Stages) WithSession(ctx context.Context, env service.Env, fn func(ctx context.Context, sess db.Session) error) error {
	return db.RunSession(ctx, s.pool, env.ClientID, fn)
}

func (s *Stages) Service() *service.Service {
	return s.svc
}

func (s *Stages) Pool() *db.Pool {
	return s.pool
}
