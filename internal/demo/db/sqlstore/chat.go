package sqlstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dberror"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
)

// CreateChat inserts a chat. The chat's vector record must exist; its id is unique per chat.
func (s *Store) CreateChat(ctx context.Context, chat *models.Chat) apperrors.Error {
	if err := validate(ctx, chat); err != nil {
		return err
	}
	if err := s.checkClient(ctx, chat.ClientID); err != nil {
		return err
	}
	if chat.ChatUUID == uuid.Nil {
		chat.ChatUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "chats", "chat_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO chats (chat_id, chat_uuid, client_id, user_id, team_id, vector_id, chat_name, chat_description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
		`
		if err := s.insert(ctx, q, "chat", query, id, chat.ChatUUID, chat.ClientID, chat.UserID, chat.TeamID, chat.VectorID,
			chat.ChatName, chat.ChatDescription); err != nil {
			return err
		}
		chat.ChatID = id
		log.Ctx(ctx).Info().Int64("chat_id", id).Int64("vector_id", chat.VectorID).Msg("chat created")
		return nil
	})
}

const chatColumns = `
	SELECT c.chat_id, c.chat_uuid, c.client_id, c.user_id, c.team_id, c.vector_id, c.chat_name, c.chat_description
	FROM chats c`

func chatDest(c *models.Chat) []any {
	return []any{&c.ChatID, &c.ChatUUID, &c.ClientID, &c.UserID, &c.TeamID, &c.VectorID, &c.ChatName, &c.ChatDescription}
}

// GetChat returns the chat only when it belongs to userID.
func (s *Store) GetChat(ctx context.Context, chatUUID uuid.UUID, userID int64) (*models.Chat, apperrors.Error) {
	query, args := s.scoped(chatColumns+" WHERE c.chat_uuid = $1 AND c.user_id = $2", "c.client_id", []any{chatUUID, userID})
	var c models.Chat
	if errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(chatDest(&c)...); errdb != nil {
		return nil, notFound(ctx, errdb, "chat")
	}
	return &c, nil
}

// GetChats lists a user's chats. With emptyOnly set, chats that already hold messages are skipped.
func (s *Store) GetChats(ctx context.Context, userID int64, emptyOnly bool) ([]models.Chat, apperrors.Error) {
	where := " WHERE c.user_id = $1"
	if emptyOnly {
		where += " AND NOT EXISTS (SELECT 1 FROM messages m WHERE m.chat_id = c.chat_id)"
	}
	query, args := s.scoped(chatColumns+where, "c.client_id", []any{userID})
	query += " ORDER BY c.chat_id;"
	rows, errdb := s.q().QueryContext(ctx, s.rebind(query), args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Int64("user_id", userID).Msg("failed to list chats")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()
	var chats []models.Chat
	for rows.Next() {
		var c models.Chat
		if errdb := rows.Scan(chatDest(&c)...); errdb != nil {
			log.Ctx(ctx).Error().Err(errdb).Msg("failed to scan chat")
			return nil, dberror.ErrDatabase.Err(errdb)
		}
		chats = append(chats, c)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return chats, nil
}

// CreateMessage appends a message to a chat.
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) apperrors.Error {
	if err := validate(ctx, m); err != nil {
		return err
	}
	if m.MsgUUID == uuid.Nil {
		m.MsgUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "messages", "msg_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO messages (msg_id, msg_uuid, chat_id, role, prompt, content, query_result, result_uuid)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
		`
		if err := s.insert(ctx, q, "message", query, id, m.MsgUUID, m.ChatID, string(m.Role), m.Prompt, m.Content,
			jsonArg(m.QueryResult), m.ResultUUID); err != nil {
			return err
		}
		m.MsgID = id
		return nil
	})
}

const messageColumns = `
	SELECT m.msg_id, m.msg_uuid, m.chat_id, m.role, m.prompt, m.content, m.query_result, m.result_uuid
	FROM messages m
	JOIN chats c ON c.chat_id = m.chat_id`

func messageDest(m *models.Message) []any {
	return []any{&m.MsgID, &m.MsgUUID, &m.ChatID, &m.Role, &m.Prompt, &m.Content, &m.QueryResult, &m.ResultUUID}
}

// GetMessages returns the chat history in insertion order.
func (s *Store) GetMessages(ctx context.Context, chatID int64) ([]models.Message, apperrors.Error) {
	query, args := s.scoped(messageColumns+" WHERE m.chat_id = $1", "c.client_id", []any{chatID})
	query += " ORDER BY m.msg_id;"
	rows, errdb := s.q().QueryContext(ctx, s.rebind(query), args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Int64("chat_id", chatID).Msg("failed to list messages")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()
	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if errdb := rows.Scan(messageDest(&m)...); errdb != nil {
			log.Ctx(ctx).Error().Err(errdb).Msg("failed to scan message")
			return nil, dberror.ErrDatabase.Err(errdb)
		}
		msgs = append(msgs, m)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return msgs, nil
}

func (s *Store) GetMessage(ctx context.Context, msgUUID uuid.UUID) (*models.Message, apperrors.Error) {
	query, args := s.scoped(messageColumns+" WHERE m.msg_uuid = $1", "c.client_id", []any{msgUUID})
	var m models.Message
	if errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(messageDest(&m)...); errdb != nil {
		return nil, notFound(ctx, errdb, "message")
	}
	return &m, nil
}

// CreateResult records the artifact of a message. A preset ResultUUID is kept so the message
// can reference the result before it is inserted.
func (s *Store) CreateResult(ctx context.Context, r *models.Result) apperrors.Error {
	if err := validate(ctx, r); err != nil {
		return err
	}
	if err := s.checkClient(ctx, r.ClientID); err != nil {
		return err
	}
	if r.ResultUUID == uuid.Nil {
		r.ResultUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "results", "result_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO results (result_id, result_uuid, client_id, chat_id, msg_id, sql_query, result_type, object_key, visual_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
		`
		if err := s.insert(ctx, q, "result", query, id, r.ResultUUID, r.ClientID, r.ChatID, r.MsgID, r.SQLQuery,
			string(r.ResultType), r.ObjectKey, jsonArg(r.VisualJSON)); err != nil {
			return err
		}
		r.ResultID = id
		return nil
	})
}

func (s *Store) GetResult(ctx context.Context, resultUUID uuid.UUID) (*models.Result, apperrors.Error) {
	query, args := s.scoped(`
		SELECT result_id, result_uuid, client_id, chat_id, msg_id, sql_query, result_type, object_key, visual_json
		FROM results
		WHERE result_uuid = $1`, "client_id", []any{resultUUID})
	var r models.Result
	errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(&r.ResultID, &r.ResultUUID, &r.ClientID, &r.ChatID,
		&r.MsgID, &r.SQLQuery, &r.ResultType, &r.ObjectKey, &r.VisualJSON)
	if errdb != nil {
		return nil, notFound(ctx, errdb, "result")
	}
	return &r, nil
}
