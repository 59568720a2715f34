package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
	"github.com/basejump-ai/basejump-demo/internal/demo/objectstore"
	"github.com/basejump-ai/basejump-demo/internal/demo/secrets"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// CreateChat opens a chat for the user in a team. The chat's vector id, its vector record and
// the chat row are created in one transaction, so concurrent calls never share a vector id.
func (s *Service) CreateChat(ctx context.Context, sess db.Session, cu ClientUser, teamID int64, name, description string) (chat *models.Chat, err error) {
	defer s.observe("create_chat", time.Now(), &err)

	team, errdb := sess.GetTeamByID(ctx, teamID)
	if errdb != nil {
		return nil, reference(errdb)
	}
	if team.ClientID != cu.ClientID {
		return nil, ErrReference.Msg("team belongs to another client")
	}
	if name == "" {
		name = types.DefaultChatName
		if description == "" {
			description = types.DefaultChatDesc
		}
	}

	chat = &models.Chat{
		ClientID:        cu.ClientID,
		UserID:          cu.UserID,
		TeamID:          teamID,
		ChatName:        name,
		ChatDescription: description,
	}
	err = sess.InTx(ctx, func(ctx context.Context) error {
		vectorID, err := sess.NextVal(ctx, "vectors", "vector_id")
		if err != nil {
			return err
		}
		vector := &models.Vector{
			VectorID:   vectorID,
			ClientID:   cu.ClientID,
			Vendor:     types.VectorVendorRedis,
			SourceType: types.VectorSourceChat,
			IndexName:  types.IndexName(cu.ClientID),
		}
		if err := sess.CreateVector(ctx, vector); err != nil {
			return err
		}
		chat.VectorID = vector.VectorID
		if err := sess.CreateChat(ctx, chat); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// ChatRequest is one prompt sent to a chat.
type ChatRequest struct {
	User         ClientUser
	ChatUUID     uuid.UUID
	ConnID       int64
	Prompt       string
	ReturnVisual bool
}

// Chat dispatches a prompt and stores the answer, and its result record when a query was run,
// in one transaction. Engine failures are returned unchanged and store nothing.
func (s *Service) Chat(ctx context.Context, sess db.Session, req ChatRequest) (msg *models.Message, err error) {
	defer s.observe("chat", time.Now(), &err)

	if req.Prompt == "" {
		return nil, ErrInvalidInput.Msg("prompt is empty")
	}
	chat, errdb := sess.GetChat(ctx, req.ChatUUID, req.User.UserID)
	if errdb != nil {
		return nil, reference(errdb)
	}
	conn, errdb := sess.GetConnectionByID(ctx, req.ConnID)
	if errdb != nil {
		return nil, reference(errdb)
	}
	ctx = log.Ctx(ctx).With().Int64("chat_id", chat.ChatID).Logger().WithContext(ctx)

	res, err := s.dispatch(ctx, sess, req, chat, conn)
	if err != nil {
		return nil, err
	}

	msg = &models.Message{
		ChatID:  chat.ChatID,
		Role:    types.MessageRoleAssistant,
		Prompt:  req.Prompt,
		Content: res.Content,
	}
	var result *models.Result
	if res.QueryResult != nil {
		q := *res.QueryResult
		qr := &q
		if qr.ResultUUID == uuid.Nil {
			qr.ResultUUID = uuid.New()
		}
		if qr.ResultType == "" {
			qr.ResultType = types.ResultTypeDataset
		}
		if msg.QueryResult, err = models.JSONB(qr); err != nil {
			return nil, ErrInvalidInput.Err(err)
		}
		msg.ResultUUID = uuid.NullUUID{UUID: qr.ResultUUID, Valid: true}
		result = &models.Result{
			ResultUUID: qr.ResultUUID,
			ClientID:   chat.ClientID,
			ChatID:     chat.ChatID,
			SQLQuery:   qr.SQLQuery,
			ResultType: qr.ResultType,
			ObjectKey:  qr.ObjectKey,
		}
		if len(qr.VisualJSON) > 0 {
			if result.VisualJSON, err = models.JSONB(qr.VisualJSON); err != nil {
				return nil, ErrInvalidInput.Err(err)
			}
		}
	}
	err = sess.InTx(ctx, func(ctx context.Context) error {
		if err := sess.CreateMessage(ctx, msg); err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		result.MsgID = msg.MsgID
		if err := sess.CreateResult(ctx, result); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("msg_uuid", msg.MsgUUID.String()).Msg("chat answered")
	return msg, nil
}

func (s *Service) GetChat(ctx context.Context, sess db.Session, chatUUID uuid.UUID, userID int64) (*models.Chat, error) {
	chat, err := sess.GetChat(ctx, chatUUID, userID)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChats lists the user's chats; emptyOnly keeps the chats without messages.
func (s *Service) GetChats(ctx context.Context, sess db.Session, userID int64, emptyOnly bool) ([]models.Chat, error) {
	chats, err := sess.GetChats(ctx, userID, emptyOnly)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *Service) GetMessages(ctx context.Context, sess db.Session, chatID int64) ([]models.Message, error) {
	msgs, err := sess.GetMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Service) GetMessage(ctx context.Context, sess db.Session, msgUUID uuid.UUID) (*models.Message, error) {
	msg, err := sess.GetMessage(ctx, msgUUID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) GetResult(ctx context.Context, sess db.Session, resultUUID uuid.UUID) (*models.Result, error) {
	r, err := sess.GetResult(ctx, resultUUID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ResultURL returns a short lived download link for a result artifact.
func (s *Service) ResultURL(ctx context.Context, sess db.Session, clientID int64, resultUUID uuid.UUID) (string, error) {
	r, errdb := sess.GetResult(ctx, resultUUID)
	if errdb != nil {
		return "", errdb
	}
	if r.ObjectKey == "" {
		return "", ErrNotFound.Msg("result has no stored artifact")
	}
	loc, err := s.storageLocation(ctx, sess, clientID)
	if err != nil {
		return "", err
	}
	expiry, err := s.cfg.ObjectStorage.Expiry()
	if err != nil {
		return "", ErrInvalidInput.Err(err)
	}
	return s.presigner.PresignGet(ctx, loc, r.ObjectKey, expiry)
}

// storageLocation returns the client's default storage location with its key decrypted.
func (s *Service) storageLocation(ctx context.Context, sess db.Session, clientID int64) (objectstore.Location, error) {
	sc, errdb := sess.GetStorageConnection(ctx, clientID, types.DefaultStorageAlias)
	if errdb != nil {
		return objectstore.Location{}, reference(errdb)
	}
	secretKey, err := secrets.DecryptString(sc.SecretAccessKey, s.cfg.Secrets.MasterKey)
	if err != nil {
		return objectstore.Location{}, err
	}
	return objectstore.Location{
		Provider:        sc.StorageProvider,
		Region:          sc.Region,
		Bucket:          sc.BucketName,
		AccessKey:       sc.AccessKey,
		SecretAccessKey: secretKey,
		Endpoint:        s.cfg.ObjectStorage.Endpoint,
		Prefix:          sc.Prefix,
	}, nil
}
