// Package sqlstore is the registrar: one create operation per entity, each validated, given an
// integer id and a UUID, and committed before it returns.
package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dberror"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dbmanager"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store runs registrar operations on one scoped connection. It is owned by a single session
// and is not safe for concurrent use.
type Store struct {
	c  dbmanager.ScopedConn
	tx *sql.Tx
}

func New(c dbmanager.ScopedConn) *Store {
	return &Store{c: c}
}

func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.c.Conn()
}

func (s *Store) rebind(query string) string {
	return s.c.Dialect().Rebind(query)
}

// ClientID is the client the connection is bound to, or 0 for an unbound connection.
func (s *Store) ClientID() int64 {
	v, ok := s.c.Scope(dbmanager.ScopeClientID)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// checkClient rejects writes for a client other than the one the connection is bound to.
func (s *Store) checkClient(ctx context.Context, clientID int64) apperrors.Error {
	if clientID == 0 {
		log.Ctx(ctx).Error().Msg("missing client id")
		return dberror.ErrMissingClientID
	}
	if bound := s.ClientID(); bound != 0 && bound != clientID {
		log.Ctx(ctx).Error().Int64("client_id", clientID).Int64("session_client_id", bound).Msg("client does not match session")
		return dberror.ErrInvalidInput.Msg("client does not match session")
	}
	return nil
}

// scoped narrows a query to the bound client. The query must end in a WHERE clause.
func (s *Store) scoped(query, column string, args []any) (string, []any) {
	id := s.ClientID()
	if id == 0 {
		return query, args
	}
	args = append(args, id)
	return query + " AND " + column + " = $" + strconv.Itoa(len(args)), args
}

func validate(ctx context.Context, v any) apperrors.Error {
	if err := models.V().Struct(v); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("invalid value")
		return dberror.ErrInvalidInput.Err(err)
	}
	return nil
}

// InTx runs fn so that every create it performs commits or rolls back together.
// Calls nest: an inner InTx joins the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.tx != nil {
		return fn(ctx)
	}
	tx, errdb := s.c.Conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	s.tx = tx
	defer func() {
		s.tx = nil
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
			return
		}
		if errdb := tx.Commit(); errdb != nil {
			log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
			err = dberror.ErrDatabase.Err(errdb)
		}
	}()
	return fn(ctx)
}

// withTx is InTx for a single registrar step.
func (s *Store) withTx(ctx context.Context, fn func(q querier) apperrors.Error) apperrors.Error {
	err := s.InTx(ctx, func(ctx context.Context) error {
		if err := fn(s.tx); err != nil {
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if appErr, ok := err.(apperrors.Error); ok {
		return appErr
	}
	return dberror.ErrDatabase.Err(err)
}

// InTransaction reports whether a transaction is open on the connection.
func (s *Store) InTransaction() bool {
	return s.tx != nil
}

// Rollback abandons the open transaction, if any.
func (s *Store) Rollback(ctx context.Context) {
	if s.tx == nil {
		return
	}
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Ctx(ctx).Error().Err(err).Msg("failed to rollback transaction")
	}
	s.tx = nil
}

const nextValQuery = `
	INSERT INTO sequences AS s (name, value)
	VALUES ($1, 1)
	ON CONFLICT (name) DO UPDATE SET value = s.value + 1
	RETURNING value;
`

// NextVal returns the next value of the sequence kept for table.column. Values start at 1 and
// are never handed out twice, also across concurrent sessions.
func (s *Store) NextVal(ctx context.Context, table, column string) (int64, apperrors.Error) {
	name := strings.ToLower(table + "." + column)
	var v int64
	if errdb := s.q().QueryRowContext(ctx, s.rebind(nextValQuery), name).Scan(&v); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Str("sequence", name).Msg("failed to allocate id")
		return 0, dberror.ErrDatabase.Err(errdb)
	}
	return v, nil
}

func (s *Store) insert(ctx context.Context, q querier, entity, query string, args ...any) apperrors.Error {
	if _, errdb := q.ExecContext(ctx, s.rebind(query), args...); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Str("entity", entity).Msg("failed to insert")
		return dberror.FromDriver(errdb)
	}
	return nil
}

func notFound(ctx context.Context, errdb error, entity string) apperrors.Error {
	if errdb == sql.ErrNoRows {
		log.Ctx(ctx).Info().Str("entity", entity).Msg("not found")
		return dberror.ErrNotFound.Msg(entity + " not found")
	}
	log.Ctx(ctx).Error().Err(errdb).Str("entity", entity).Msg("failed to retrieve")
	return dberror.ErrDatabase.Err(errdb)
}

// jsonArg turns an unset json value into SQL NULL.
func jsonArg(j pgtype.JSONB) pgtype.JSONB {
	if j.Status == pgtype.Undefined {
		return pgtype.JSONB{Status: pgtype.Null}
	}
	return j
}
