package db

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/common/logtrace"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dbmanager"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/schema"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/sqlstore"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// Registrar creates and reads the pipeline entities.
type Registrar interface {
	// Client
	CreateClient(ctx context.Context, client *models.Client) apperrors.Error
	GetClient(ctx context.Context, clientID int64) (*models.Client, apperrors.Error)
	CreateStorageConnection(ctx context.Context, sc *models.StorageConnection) apperrors.Error
	GetStorageConnection(ctx context.Context, clientID int64, alias string) (*models.StorageConnection, apperrors.Error)

	// Team and User
	CreateTeam(ctx context.Context, team *models.Team) apperrors.Error
	GetTeam(ctx context.Context, teamUUID uuid.UUID) (*models.Team, apperrors.Error)
	GetTeamByID(ctx context.Context, teamID int64) (*models.Team, apperrors.Error)
	CreateUser(ctx context.Context, user *models.User) apperrors.Error
	GetUser(ctx context.Context, userUUID uuid.UUID) (*models.User, apperrors.Error)
	GetUserByID(ctx context.Context, userID int64) (*models.User, apperrors.Error)

	// Associations
	CreateUserTeam(ctx context.Context, ut *models.UserTeam) apperrors.Error
	CountUserTeam(ctx context.Context, userID, teamID int64) (int, apperrors.Error)
	CreateConnTeam(ctx context.Context, ct *models.ConnTeam) apperrors.Error

	// Database and Connection
	CreateDatabase(ctx context.Context, d *models.Database) apperrors.Error
	GetDatabase(ctx context.Context, dbID int64) (*models.Database, apperrors.Error)
	FindDatabase(ctx context.Context, clientID int64, dbType types.DatabaseType, host string, port int, name string) (*models.Database, apperrors.Error)
	UpdateAvailableSchemas(ctx context.Context, dbID int64, available pgtype.JSONB) apperrors.Error
	CreateConnection(ctx context.Context, c *models.Connection) apperrors.Error
	GetConnection(ctx context.Context, connUUID uuid.UUID) (*models.ConnectionDetail, apperrors.Error)
	GetConnectionByID(ctx context.Context, connID int64) (*models.ConnectionDetail, apperrors.Error)
	GetConnectionsForTeam(ctx context.Context, userID, teamID int64) ([]models.ConnectionDetail, apperrors.Error)

	// Vector
	CreateVector(ctx context.Context, v *models.Vector) apperrors.Error
	GetVector(ctx context.Context, vectorID int64) (*models.Vector, apperrors.Error)

	// Chat, Message and Result
	CreateChat(ctx context.Context, chat *models.Chat) apperrors.Error
	GetChat(ctx context.Context, chatUUID uuid.UUID, userID int64) (*models.Chat, apperrors.Error)
	GetChats(ctx context.Context, userID int64, emptyOnly bool) ([]models.Chat, apperrors.Error)
	CreateMessage(ctx context.Context, m *models.Message) apperrors.Error
	GetMessages(ctx context.Context, chatID int64) ([]models.Message, apperrors.Error)
	GetMessage(ctx context.Context, msgUUID uuid.UUID) (*models.Message, apperrors.Error)
	CreateResult(ctx context.Context, r *models.Result) apperrors.Error
	GetResult(ctx context.Context, resultUUID uuid.UUID) (*models.Result, apperrors.Error)

	// Sequences and transactions
	NextVal(ctx context.Context, table, column string) (int64, apperrors.Error)
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ConnectionManager interface {
	// ClientID is the client the session is bound to, 0 when unbound.
	ClientID() int64
	InTransaction() bool
	// Rollback abandons the open transaction, if any.
	Rollback(ctx context.Context)
	// Close rolls back any open transaction and returns the connection to the pool.
	Close(ctx context.Context)
}

// Session is an exclusively owned, client scoped connection to the metadata store.
type Session interface {
	Registrar
	ConnectionManager
}

var configuredScopes = []string{
	dbmanager.ScopeClientID,
}

// Pool hands out sessions. Metadata tables are created on the first session, and the per
// client schema on the first session bound to that client.
type Pool struct {
	db      dbmanager.ScopedDb
	mu      sync.Mutex
	ready   bool
	clients map[int64]bool
}

func NewPool(ctx context.Context, driver, dsn string) (*Pool, error) {
	sdb, err := dbmanager.NewScopedDb(ctx, driver, dsn, configuredScopes)
	if err != nil {
		return nil, err
	}
	return &Pool{db: sdb, clients: make(map[int64]bool)}, nil
}

func (p *Pool) Close() error {
	return p.db.Close()
}

// Stats returns the number of sessions opened and closed.
func (p *Pool) Stats() (requests, returns uint64) {
	return p.db.Stats()
}

func (p *Pool) ensure(ctx context.Context, conn dbmanager.ScopedConn, clientID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		if err := schema.EnsureSchema(ctx, conn.Conn(), conn.Dialect()); err != nil {
			return err
		}
		p.ready = true
	}
	if clientID != 0 && !p.clients[clientID] {
		if err := schema.EnsureClientSchema(ctx, conn.Conn(), conn.Dialect(), clientID); err != nil {
			return err
		}
		p.clients[clientID] = true
	}
	return nil
}

type session struct {
	*sqlstore.Store
	conn dbmanager.ScopedConn
}

func (s *session) Close(ctx context.Context) {
	s.Rollback(ctx)
	s.conn.Close(ctx)
}

// OpenSession acquires a connection bound to clientID. Use 0 for a session that may create clients.
func OpenSession(ctx context.Context, pool *Pool, clientID int64) (Session, error) {
	conn, err := pool.db.Conn(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to get db connection")
		return nil, err
	}
	if err := pool.ensure(ctx, conn, clientID); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	if clientID != 0 {
		if err := conn.AddScope(ctx, dbmanager.ScopeClientID, strconv.FormatInt(clientID, 10)); err != nil {
			conn.Close(ctx)
			return nil, err
		}
	}
	return &session{Store: sqlstore.New(conn), conn: conn}, nil
}

// RunSession opens a session, runs fn and always releases the connection. When fn fails or
// panics, the open transaction is rolled back first; a panic is re-raised afterwards.
func RunSession(ctx context.Context, pool *Pool, clientID int64, fn func(ctx context.Context, s Session) error) (err error) {
	if clientID != 0 {
		ctx = logtrace.WithClient(ctx, clientID)
	}
	s, err := OpenSession(ctx, pool, clientID)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx := context.WithoutCancel(ctx)
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().Interface("panic", r).Msg("session aborted")
			s.Close(closeCtx)
			panic(r)
		}
		if err != nil && s.InTransaction() {
			log.Ctx(ctx).Info().Err(err).Msg("rolling back session transaction")
		}
		s.Close(closeCtx)
	}()
	return fn(ctx, s)
}
