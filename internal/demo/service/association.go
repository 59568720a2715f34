package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
)

// AddUserToTeam links a user to a team of the same client. Linking twice stores two rows.
func (s *Service) AddUserToTeam(ctx context.Context, sess db.Session, userID, teamID int64) (err error) {
	defer s.observe("add_user_to_team", time.Now(), &err)
	user, errdb := sess.GetUserByID(ctx, userID)
	if errdb != nil {
		return reference(errdb)
	}
	team, errdb := sess.GetTeamByID(ctx, teamID)
	if errdb != nil {
		return reference(errdb)
	}
	if user.ClientID != team.ClientID {
		return ErrReference.Msg("user and team belong to different clients")
	}
	if errdb := sess.CreateUserTeam(ctx, &models.UserTeam{UserID: userID, TeamID: teamID}); errdb != nil {
		return errdb
	}
	log.Ctx(ctx).Info().Int64("user_id", userID).Int64("team_id", teamID).Msg("user added to team")
	return nil
}

// AddConnectionToTeam shares a connection with a team.
func (s *Service) AddConnectionToTeam(ctx context.Context, sess db.Session, clientID, teamID, connID int64) (err error) {
	defer s.observe("add_connection_to_team", time.Now(), &err)
	conn, errdb := sess.GetConnectionByID(ctx, connID)
	if errdb != nil {
		return reference(errdb)
	}
	team, errdb := sess.GetTeamByID(ctx, teamID)
	if errdb != nil {
		return reference(errdb)
	}
	if conn.ClientID != clientID || team.ClientID != clientID {
		return ErrReference.Msg("connection and team must belong to the client")
	}
	if errdb := sess.CreateConnTeam(ctx, &models.ConnTeam{ClientID: clientID, TeamID: teamID, ConnID: connID}); errdb != nil {
		return errdb
	}
	log.Ctx(ctx).Info().Int64("conn_id", connID).Int64("team_id", teamID).Msg("connection added to team")
	return nil
}

// GetConnections lists the connections the user can use through the team.
func (s *Service) GetConnections(ctx context.Context, sess db.Session, userID, teamID int64) ([]models.ConnectionDetail, error) {
	conns, err := sess.GetConnectionsForTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	return conns, nil
}
