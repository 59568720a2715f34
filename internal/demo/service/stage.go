package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// ProvisioningStage is how far a client has been provisioned. The stages form one linear chain:
// a user is created only after its team exists.
type ProvisioningStage int

const (
	Unprovisioned ProvisioningStage = iota
	ClientReady
	TeamReady
	UserReady
	MembershipLinked
	ConnectionReady
	ConnectionLinked
	ChatReady
	ChatAnswered
)

var stageNames = [...]string{
	"Unprovisioned",
	"ClientReady",
	"TeamReady",
	"UserReady",
	"MembershipLinked",
	"ConnectionReady",
	"ConnectionLinked",
	"ChatReady",
	"ChatAnswered",
}

func (st ProvisioningStage) String() string {
	if st < 0 || int(st) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[st]
}

// Env is the record of a provisioning run. Transitions never modify an Env; they return a new
// one at the stage the transition produces. Identifiers of later stages are dropped, so an Env
// never holds a user, connection or chat that was provisioned for a different team.
type Env struct {
	stage ProvisioningStage

	ClientID   int64
	ClientUUID uuid.UUID
	TeamID     int64
	TeamUUID   uuid.UUID
	UserID     int64
	UserUUID   uuid.UUID
	UserRole   types.UserRole
	Connection DatabaseConnection
	ChatID     int64
	ChatUUID   uuid.UUID
	VectorID   int64
	// LastMessage is the latest answer, set once the chat has been answered.
	LastMessage *models.Message
}

func (e Env) Stage() ProvisioningStage {
	return e.stage
}

func (e Env) ClientUser() ClientUser {
	return ClientUser{
		ClientID:   e.ClientID,
		ClientUUID: e.ClientUUID,
		UserID:     e.UserID,
		UserUUID:   e.UserUUID,
		Role:       e.UserRole,
	}
}

// at returns e moved to st, with the identifiers produced by stages after st cleared.
func (e Env) at(st ProvisioningStage) Env {
	e.stage = st
	if st < UserReady {
		e.UserID, e.UserUUID, e.UserRole = 0, uuid.Nil, ""
	}
	if st < ConnectionReady {
		e.Connection = DatabaseConnection{}
	}
	if st < ChatReady {
		e.ChatID, e.ChatUUID, e.VectorID = 0, uuid.Nil, 0
	}
	if st < ChatAnswered {
		e.LastMessage = nil
	}
	return e
}

func (e Env) require(st ProvisioningStage) error {
	if e.stage < st {
		return ErrStageOrder.Msg("requires stage " + st.String() + ", env is at " + e.stage.String())
	}
	return nil
}

// ProvisionClient creates a client and starts a new Env. The plaintext secret is only in the
// returned credentials.
func (s *Service) ProvisionClient(ctx context.Context, sess db.Session, name string, clientType types.ClientType, description string) (Env, *ClientCredentials, error) {
	creds, err := s.CreateClient(ctx, sess, name, clientType, description)
	if err != nil {
		return Env{}, nil, err
	}
	env := Env{ClientID: creds.ClientID, ClientUUID: creds.ClientUUID}
	return env.at(ClientReady), creds, nil
}

func (s *Service) ProvisionTeam(ctx context.Context, sess db.Session, env Env, name, description string) (Env, error) {
	if err := env.require(ClientReady); err != nil {
		return env, err
	}
	team, err := s.CreateTeam(ctx, sess, env.ClientID, name, description)
	if err != nil {
		return env, err
	}
	env.TeamID, env.TeamUUID = team.TeamID, team.TeamUUID
	return env.at(TeamReady), nil
}

func (s *Service) ProvisionUser(ctx context.Context, sess db.Session, env Env, username, email string, role types.UserRole) (Env, error) {
	if err := env.require(TeamReady); err != nil {
		return env, err
	}
	user, err := s.CreateUser(ctx, sess, env.ClientID, username, email, role)
	if err != nil {
		return env, err
	}
	env.UserID, env.UserUUID, env.UserRole = user.UserID, user.UserUUID, user.Role
	return env.at(UserReady), nil
}

func (s *Service) LinkMembership(ctx context.Context, sess db.Session, env Env) (Env, error) {
	if err := env.require(UserReady); err != nil {
		return env, err
	}
	if err := s.AddUserToTeam(ctx, sess, env.UserID, env.TeamID); err != nil {
		return env, err
	}
	return env.at(MembershipLinked), nil
}

func (s *Service) ProvisionConnection(ctx context.Context, sess db.Session, env Env, p ConnParams) (Env, error) {
	if err := env.require(MembershipLinked); err != nil {
		return env, err
	}
	dc, err := s.AddClientDatabase(ctx, sess, env.ClientUser(), p)
	if err != nil {
		return env, err
	}
	env.Connection = *dc
	return env.at(ConnectionReady), nil
}

func (s *Service) LinkConnection(ctx context.Context, sess db.Session, env Env) (Env, error) {
	if err := env.require(ConnectionReady); err != nil {
		return env, err
	}
	if err := s.AddConnectionToTeam(ctx, sess, env.ClientID, env.TeamID, env.Connection.ConnID); err != nil {
		return env, err
	}
	return env.at(ConnectionLinked), nil
}

// ProvisionChat opens a chat with the default name and description.
func (s *Service) ProvisionChat(ctx context.Context, sess db.Session, env Env) (Env, error) {
	if err := env.require(ConnectionLinked); err != nil {
		return env, err
	}
	chat, err := s.CreateChat(ctx, sess, env.ClientUser(), env.TeamID, "", "")
	if err != nil {
		return env, err
	}
	env.ChatID, env.ChatUUID, env.VectorID = chat.ChatID, chat.ChatUUID, chat.VectorID
	return env.at(ChatReady), nil
}

// Ask sends a prompt to the Env's chat over the Env's connection.
func (s *Service) Ask(ctx context.Context, sess db.Session, env Env, prompt string, returnVisual bool) (Env, error) {
	if err := env.require(ChatReady); err != nil {
		return env, err
	}
	msg, err := s.Chat(ctx, sess, ChatRequest{
		User:         env.ClientUser(),
		ChatUUID:     env.ChatUUID,
		ConnID:       env.Connection.ConnID,
		Prompt:       prompt,
		ReturnVisual: returnVisual,
	})
	if err != nil {
		return env, err
	}
	env.LastMessage = msg
	return env.at(ChatAnswered), nil
}
