package models

import (
	"github.com/google/uuid"

	"github.com/basejump-ai/basejump-demo/pkg/types"
)

type Team struct {
	TeamID   int64     `db:"team_id"`
	TeamUUID uuid.UUID `db:"team_uuid"`
	ClientID int64     `db:"client_id" validate:"required"`
	TeamName string    `db:"team_name" validate:"required,max=256"`
	TeamDesc string    `db:"team_desc"`
}

type User struct {
	UserID       int64          `db:"user_id"`
	UserUUID     uuid.UUID      `db:"user_uuid"`
	ClientID     int64          `db:"client_id" validate:"required"`
	Username     string         `db:"username" validate:"required,max=256"`
	EmailAddress string         `db:"email_address" validate:"required,email"`
	Role         types.UserRole `db:"role" validate:"required,userRole"`
}

// user_team_associations and conn_team_associations carry no unique constraint.

type UserTeam struct {
	UserID int64 `db:"user_id" validate:"required"`
	TeamID int64 `db:"team_id" validate:"required"`
}

type ConnTeam struct {
	ClientID int64 `db:"client_id" validate:"required"`
	TeamID   int64 `db:"team_id" validate:"required"`
	ConnID   int64 `db:"conn_id" validate:"required"`
}
