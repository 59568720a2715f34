package dberror

import (
	"errors"

	"github.com/jackc/pgconn"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

var (
	ErrDatabase        apperrors.Error = errkind.ErrPersistence.New("db error")
	ErrAlreadyExists   apperrors.Error = ErrDatabase.New("already exists")
	ErrNotFound        apperrors.Error = errkind.ErrReference.New("not found")
	ErrForeignKey      apperrors.Error = errkind.ErrReference.New("referenced row does not exist")
	ErrInvalidInput    apperrors.Error = errkind.ErrValidation.New("invalid input")
	ErrMissingClientID apperrors.Error = ErrInvalidInput.New("missing client ID")
)

// sqlite extended result codes
const (
	sqliteConstraintForeignKey = 787
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// FromDriver maps a driver error onto the dberror hierarchy.
func FromDriver(err error) apperrors.Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return ErrForeignKey.Err(err)
		case "23505":
			return ErrAlreadyExists.Err(err)
		}
		return ErrDatabase.Err(err)
	}
	var liteErr interface{ Code() int }
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintForeignKey:
			return ErrForeignKey.Err(err)
		case sqliteConstraintPrimaryKey, sqliteConstraintUnique:
			return ErrAlreadyExists.Err(err)
		}
	}
	return ErrDatabase.Err(err)
}
