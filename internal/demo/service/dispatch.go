package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
	"github.com/basejump-ai/basejump-demo/internal/demo/engine"
	"github.com/basejump-ai/basejump-demo/internal/demo/indexer"
	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
	"github.com/basejump-ai/basejump-demo/internal/demo/secrets"
)

// dispatch builds the agent context for a prompt and hands it to the engine. Whatever the
// engine returns, answer or error, is passed back unchanged.
func (s *Service) dispatch(ctx context.Context, sess db.Session, req ChatRequest, chat *models.Chat, conn *models.ConnectionDetail) (*engine.Result, error) {
	if s.engine == nil {
		return nil, ErrNotConfigured.Msg("reasoning engine is not configured")
	}
	ac, err := s.agentContext(ctx, sess, req, chat, conn)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().Str("prompt_uuid", ac.Prompt.PromptUUID.String()).Int("history", len(ac.History)).Msg("dispatching prompt")
	return s.engine.Prompt(ctx, ac)
}

func (s *Service) agentContext(ctx context.Context, sess db.Session, req ChatRequest, chat *models.Chat, conn *models.ConnectionDetail) (*engine.AgentContext, error) {
	team, errdb := sess.GetTeamByID(ctx, chat.TeamID)
	if errdb != nil {
		return nil, reference(errdb)
	}
	vector, errdb := sess.GetVector(ctx, chat.VectorID)
	if errdb != nil {
		return nil, reference(errdb)
	}
	msgs, errdb := sess.GetMessages(ctx, chat.ChatID)
	if errdb != nil {
		return nil, errdb
	}
	history := make([]engine.HistoryMessage, 0, len(msgs))
	parent := uuid.New()
	for _, m := range msgs {
		history = append(history, engine.HistoryMessage{Role: m.Role, Prompt: m.Prompt, Content: m.Content})
		parent = m.MsgUUID
	}

	templates, err := conn.Database.SchemaList()
	if err != nil {
		return nil, ErrInvalidInput.Err(err)
	}
	schemas, errs := schemaname.RenderAll(templates)
	if errs != nil {
		return nil, ErrInvalidSchemas.Err(errs)
	}
	password, err := secrets.DecryptString(conn.Password, s.cfg.Secrets.MasterKey)
	if err != nil {
		return nil, err
	}

	ac := &engine.AgentContext{
		Prompt: engine.PromptMetadata{
			PromptUUID:   uuid.New(),
			PromptTime:   time.Now().UTC(),
			Prompt:       req.Prompt,
			ClientID:     req.User.ClientID,
			ClientUUID:   req.User.ClientUUID,
			UserID:       req.User.UserID,
			UserUUID:     req.User.UserUUID,
			UserRole:     req.User.Role,
			ReturnVisual: req.ReturnVisual,
		},
		Chat: engine.ChatMetadata{
			ChatID:        chat.ChatID,
			ChatUUID:      chat.ChatUUID,
			VectorID:      chat.VectorID,
			IndexName:     vector.IndexName,
			TeamID:        team.TeamID,
			TeamUUID:      team.TeamUUID,
			ParentMsgUUID: parent,
		},
		History: history,
		Connection: engine.ConnectionInfo{
			ConnUUID:     conn.ConnUUID,
			DatabaseType: conn.Database.DatabaseType,
			Host:         conn.Database.Host,
			Port:         conn.Database.Port,
			DatabaseName: conn.Database.DatabaseName,
			Username:     conn.Username,
			Password:     password,
			Schemas:      schemas,
			IncludeViews: conn.Database.IncludeViews,
			SSL:          conn.Database.SSL,
		},
		Models: modelsFromConfig(s.cfg.Models),
	}

	if tableVector, errdb := sess.GetVector(ctx, conn.Database.VectorID); errdb == nil {
		ac.Index = &indexer.IndexHandle{
			Vendor:       tableVector.Vendor,
			IndexName:    tableVector.IndexName,
			DatabaseUUID: conn.Database.DBUUID,
		}
	} else if !errors.Is(errdb, ErrNotFound) {
		return nil, errdb
	}

	loc, err := s.storageLocation(ctx, sess, req.User.ClientID)
	switch {
	case err == nil:
		ac.Storage = &engine.StorageLocation{Provider: loc.Provider, Region: loc.Region, Bucket: loc.Bucket, Prefix: loc.Prefix}
	case errors.Is(err, ErrNotFound):
		log.Ctx(ctx).Info().Msg("client has no default storage location")
	default:
		return nil, err
	}
	return ac, nil
}

func modelsFromConfig(m config.ModelsConfig) engine.Models {
	return engine.Models{
		Embedding: engine.Model{Name: m.Embedding.Name, Endpoint: m.Embedding.Endpoint},
		Small:     engine.Model{Name: m.Small.Name, Endpoint: m.Small.Endpoint},
		Large:     engine.Model{Name: m.Large.Name, Endpoint: m.Large.Endpoint},
	}
}
