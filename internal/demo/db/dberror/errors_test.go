package dberror

import (
	"testing"

	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

type codedErr int

func (c codedErr) Error() string { return "sqlite error" }
func (c codedErr) Code() int     { return int(c) }

func TestFromDriver(t *testing.T) {
	err := FromDriver(&pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, err, ErrForeignKey)
	assert.Equal(t, errkind.Reference, errkind.Classify(err))

	err = FromDriver(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.ErrorIs(t, err, ErrDatabase)

	err = FromDriver(codedErr(sqliteConstraintForeignKey))
	assert.ErrorIs(t, err, ErrForeignKey)

	err = FromDriver(codedErr(sqliteConstraintUnique))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = FromDriver(errors.New("disk full"))
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Equal(t, errkind.Persistence, errkind.Classify(err))
}

func TestKinds(t *testing.T) {
	assert.Equal(t, errkind.Reference, errkind.Classify(ErrNotFound.Msg("team not found")))
	assert.Equal(t, errkind.Validation, errkind.Classify(ErrMissingClientID))
}
