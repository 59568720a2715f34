package sqlstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
)

func (s *Store) CreateTeam(ctx context.Context, team *models.Team) apperrors.Error {
	if err := validate(ctx, team); err != nil {
		return err
	}
	if err := s.checkClient(ctx, team.ClientID); err != nil {
		return err
	}
	if team.TeamUUID == uuid.Nil {
		team.TeamUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "teams", "team_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO teams (team_id, team_uuid, client_id, team_name, team_desc)
			VALUES ($1, $2, $3, $4, $5);
		`
		if err := s.insert(ctx, q, "team", query, id, team.TeamUUID, team.ClientID, team.TeamName, team.TeamDesc); err != nil {
			return err
		}
		team.TeamID = id
		log.Ctx(ctx).Info().Int64("team_id", id).Msg("team created")
		return nil
	})
}

const teamColumns = `SELECT team_id, team_uuid, client_id, team_name, team_desc FROM teams`

func (s *Store) getTeam(ctx context.Context, where string, arg any) (*models.Team, apperrors.Error) {
	query, args := s.scoped(teamColumns+" WHERE "+where, "client_id", []any{arg})
	var t models.Team
	errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(&t.TeamID, &t.TeamUUID, &t.ClientID, &t.TeamName, &t.TeamDesc)
	if errdb != nil {
		return nil, notFound(ctx, errdb, "team")
	}
	return &t, nil
}

func (s *Store) GetTeam(ctx context.Context, teamUUID uuid.UUID) (*models.Team, apperrors.Error) {
	return s.getTeam(ctx, "team_uuid = $1", teamUUID)
}

func (s *Store) GetTeamByID(ctx context.Context, teamID int64) (*models.Team, apperrors.Error) {
	return s.getTeam(ctx, "team_id = $1", teamID)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) apperrors.Error {
	if err := validate(ctx, user); err != nil {
		return err
	}
	if err := s.checkClient(ctx, user.ClientID); err != nil {
		return err
	}
	if user.UserUUID == uuid.Nil {
		user.UserUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "users", "user_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO users (user_id, user_uuid, client_id, username, email_address, role)
			VALUES ($1, $2, $3, $4, $5, $6);
		`
		if err := s.insert(ctx, q, "user", query, id, user.UserUUID, user.ClientID, user.Username, user.EmailAddress, string(user.Role)); err != nil {
			return err
		}
		user.UserID = id
		log.Ctx(ctx).Info().Int64("user_id", id).Msg("user created")
		return nil
	})
}

const userColumns = `SELECT user_id, user_uuid, client_id, username, email_address, role FROM users`

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, apperrors.Error) {
	query, args := s.scoped(userColumns+" WHERE "+where, "client_id", []any{arg})
	var u models.User
	errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(&u.UserID, &u.UserUUID, &u.ClientID, &u.Username, &u.EmailAddress, &u.Role)
	if errdb != nil {
		return nil, notFound(ctx, errdb, "user")
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, userUUID uuid.UUID) (*models.User, apperrors.Error) {
	return s.getUser(ctx, "user_uuid = $1", userUUID)
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*models.User, apperrors.Error) {
	return s.getUser(ctx, "user_id = $1", userID)
}
