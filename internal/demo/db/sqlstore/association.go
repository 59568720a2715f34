package sqlstore

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dberror"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
)

// CreateUserTeam links a user to a team. Linking twice stores two rows.
func (s *Store) CreateUserTeam(ctx context.Context, ut *models.UserTeam) apperrors.Error {
	if err := validate(ctx, ut); err != nil {
		return err
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		query := `INSERT INTO user_team_associations (user_id, team_id) VALUES ($1, $2);`
		if err := s.insert(ctx, q, "user team association", query, ut.UserID, ut.TeamID); err != nil {
			return err
		}
		log.Ctx(ctx).Info().Int64("user_id", ut.UserID).Int64("team_id", ut.TeamID).Msg("user added to team")
		return nil
	})
}

// CountUserTeam returns how many association rows link the user to the team.
func (s *Store) CountUserTeam(ctx context.Context, userID, teamID int64) (int, apperrors.Error) {
	query := `SELECT count(*) FROM user_team_associations WHERE user_id = $1 AND team_id = $2;`
	var n int
	if errdb := s.q().QueryRowContext(ctx, s.rebind(query), userID, teamID).Scan(&n); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to count user team associations")
		return 0, dberror.ErrDatabase.Err(errdb)
	}
	return n, nil
}

// CreateConnTeam makes a connection available to a team. Linking twice stores two rows.
func (s *Store) CreateConnTeam(ctx context.Context, ct *models.ConnTeam) apperrors.Error {
	if err := validate(ctx, ct); err != nil {
		return err
	}
	if err := s.checkClient(ctx, ct.ClientID); err != nil {
		return err
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		query := `INSERT INTO conn_team_associations (client_id, team_id, conn_id) VALUES ($1, $2, $3);`
		if err := s.insert(ctx, q, "connection team association", query, ct.ClientID, ct.TeamID, ct.ConnID); err != nil {
			return err
		}
		log.Ctx(ctx).Info().Int64("conn_id", ct.ConnID).Int64("team_id", ct.TeamID).Msg("connection added to team")
		return nil
	})
}
