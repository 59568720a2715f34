// Package service provisions the resources of a client and runs chats against its data sources.
// Every operation takes the session it runs on; a session is bound to one client.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/connector"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/engine"
	"github.com/basejump-ai/basejump-demo/internal/demo/indexer"
	"github.com/basejump-ai/basejump-demo/internal/demo/metrics"
	"github.com/basejump-ai/basejump-demo/internal/demo/objectstore"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// Deps are the external collaborators. Connector and Presigner default to the SQL connector
// and the S3 presigner.
type Deps struct {
	Connector connector.Connector
	Indexer   indexer.Indexer
	Engine    engine.Engine
	Presigner objectstore.Presigner
	Metrics   *metrics.Metrics
}

type Service struct {
	cfg       *config.Config
	connector connector.Connector
	indexer   indexer.Indexer
	engine    engine.Engine
	presigner objectstore.Presigner
	metrics   *metrics.Metrics
}

func New(cfg *config.Config, deps Deps) *Service {
	s := &Service{
		cfg:       cfg,
		connector: deps.Connector,
		indexer:   deps.Indexer,
		engine:    deps.Engine,
		presigner: deps.Presigner,
		metrics:   deps.Metrics,
	}
	if s.connector == nil {
		s.connector = connector.New()
	}
	if s.presigner == nil {
		s.presigner = objectstore.NewS3Presigner()
	}
	return s
}

// ClientUser identifies the user an operation runs for.
type ClientUser struct {
	ClientID   int64
	ClientUUID uuid.UUID
	UserID     int64
	UserUUID   uuid.UUID
	Role       types.UserRole
}

// ClientUser loads the identity of a user and its client.
func (s *Service) ClientUser(ctx context.Context, sess db.Session, userID int64) (ClientUser, error) {
	user, err := sess.GetUserByID(ctx, userID)
	if err != nil {
		return ClientUser{}, reference(err)
	}
	client, err := sess.GetClient(ctx, user.ClientID)
	if err != nil {
		return ClientUser{}, reference(err)
	}
	return ClientUser{
		ClientID:   client.ClientID,
		ClientUUID: client.ClientUUID,
		UserID:     user.UserID,
		UserUUID:   user.UserUUID,
		Role:       user.Role,
	}, nil
}

func (s *Service) observe(operation string, start time.Time, err *error) {
	s.metrics.Observe(operation, start, *err)
}

// reference turns a missing row into ErrReference; other errors pass through.
func reference(err apperrors.Error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrReference.Err(err)
	}
	return err
}
