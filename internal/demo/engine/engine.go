// Package engine is the client side of the reasoning engine that turns a chat prompt into SQL,
// runs it and stores the result artifact.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/indexer"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// Engine failures belong to no pipeline error family and are passed on untouched.
var (
	ErrEngine         apperrors.Error = apperrors.New("reasoning engine failed")
	ErrEngineRequest  apperrors.Error = ErrEngine.New("unable to reach reasoning engine")
	ErrEngineStatus   apperrors.Error = ErrEngine.New("reasoning engine rejected the prompt")
	ErrEngineResponse apperrors.Error = ErrEngine.New("invalid reasoning engine response")
)

type PromptMetadata struct {
	PromptUUID   uuid.UUID      `json:"prompt_uuid"`
	PromptTime   time.Time      `json:"prompt_time"`
	Prompt       string         `json:"prompt"`
	ClientID     int64          `json:"client_id"`
	ClientUUID   uuid.UUID      `json:"client_uuid"`
	UserID       int64          `json:"user_id"`
	UserUUID     uuid.UUID      `json:"user_uuid"`
	UserRole     types.UserRole `json:"user_role"`
	ReturnVisual bool           `json:"return_visual_json"`
}

type ChatMetadata struct {
	ChatID        int64     `json:"chat_id"`
	ChatUUID      uuid.UUID `json:"chat_uuid"`
	VectorID      int64     `json:"vector_id"`
	IndexName     string    `json:"index_name"`
	TeamID        int64     `json:"team_id"`
	TeamUUID      uuid.UUID `json:"team_uuid"`
	ParentMsgUUID uuid.UUID `json:"parent_msg_uuid,omitempty"`
}

// HistoryMessage is one earlier turn of the chat.
type HistoryMessage struct {
	Role    types.MessageRole `json:"role"`
	Prompt  string            `json:"prompt,omitempty"`
	Content string            `json:"content"`
}

// ConnectionInfo is what the engine needs to query the client data source.
type ConnectionInfo struct {
	ConnUUID     uuid.UUID          `json:"conn_uuid"`
	DatabaseType types.DatabaseType `json:"database_type"`
	Host         string             `json:"host"`
	Port         int                `json:"port"`
	DatabaseName string             `json:"database_name"`
	Username     string             `json:"username"`
	Password     string             `json:"password"`
	Schemas      []string           `json:"schemas"`
	IncludeViews bool               `json:"include_views"`
	SSL          bool               `json:"ssl"`
}

type Model struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint,omitempty"`
}

type Models struct {
	Embedding Model `json:"embedding"`
	Small     Model `json:"small"`
	Large     Model `json:"large"`
}

// StorageLocation is where the engine uploads result artifacts.
type StorageLocation struct {
	Provider types.StorageProvider `json:"provider"`
	Region   string                `json:"region"`
	Bucket   string                `json:"bucket"`
	Prefix   string                `json:"prefix"`
}

// AgentContext carries everything the engine is given for one prompt.
type AgentContext struct {
	Prompt     PromptMetadata       `json:"prompt"`
	Chat       ChatMetadata         `json:"chat"`
	History    []HistoryMessage     `json:"history"`
	Index      *indexer.IndexHandle `json:"index,omitempty"`
	Connection ConnectionInfo       `json:"connection"`
	Models     Models               `json:"models"`
	Storage    *StorageLocation     `json:"storage,omitempty"`
}

type QueryResult struct {
	SQLQuery   string              `json:"sql_query"`
	ResultType types.ResultType    `json:"result_type"`
	ResultUUID uuid.UUID           `json:"result_uuid"`
	ObjectKey  string              `json:"object_key,omitempty"`
	VisualJSON jsoniter.RawMessage `json:"visual_json,omitempty"`
}

// Result is the engine's answer. QueryResult is nil when no query was run.
type Result struct {
	Content     string       `json:"content"`
	QueryResult *QueryResult `json:"query_result,omitempty"`
}

type Engine interface {
	Prompt(ctx context.Context, ac *AgentContext) (*Result, error)
}
