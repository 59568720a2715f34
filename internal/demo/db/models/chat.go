package models

import (
	"github.com/google/uuid"
	"github.com/jackc/pgtype"

	"github.com/basejump-ai/basejump-demo/pkg/types"
)

type Chat struct {
	ChatID          int64     `db:"chat_id"`
	ChatUUID        uuid.UUID `db:"chat_uuid"`
	ClientID        int64     `db:"client_id" validate:"required"`
	UserID          int64     `db:"user_id" validate:"required"`
	TeamID          int64     `db:"team_id" validate:"required"`
	VectorID        int64     `db:"vector_id" validate:"required"`
	ChatName        string    `db:"chat_name" validate:"required"`
	ChatDescription string    `db:"chat_description"`
}

// Message is append only; a chat's history is its messages ordered by MsgID.
type Message struct {
	MsgID       int64             `db:"msg_id"`
	MsgUUID     uuid.UUID         `db:"msg_uuid"`
	ChatID      int64             `db:"chat_id" validate:"required"`
	Role        types.MessageRole `db:"role" validate:"required,oneof=ASSISTANT USER SYSTEM"`
	Prompt      string            `db:"prompt"`
	Content     string            `db:"content"`
	QueryResult pgtype.JSONB      `db:"query_result"`
	ResultUUID  uuid.NullUUID     `db:"result_uuid"`
}

// Result references the artifact produced for a message.
type Result struct {
	ResultID   int64            `db:"result_id"`
	ResultUUID uuid.UUID        `db:"result_uuid"`
	ClientID   int64            `db:"client_id" validate:"required"`
	ChatID     int64            `db:"chat_id" validate:"required"`
	MsgID      int64            `db:"msg_id" validate:"required"`
	SQLQuery   string           `db:"sql_query" validate:"required"`
	ResultType types.ResultType `db:"result_type" validate:"required"`
	ObjectKey  string           `db:"object_key"`
	VisualJSON pgtype.JSONB     `db:"visual_json"`
}

// DecodeQueryResult unmarshals the stored query result into v.
func (m *Message) DecodeQueryResult(v any) error {
	return decodeJSONB(m.QueryResult, v)
}
