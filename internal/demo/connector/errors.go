package connector

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

var (
	ErrConnect        apperrors.Error = errkind.ErrConnection.New("unable to connect to database")
	ErrConnectDB      apperrors.Error = ErrConnect.New("database rejected the credentials")
	ErrConnectNetwork apperrors.Error = ErrConnect.New("database is unreachable")
	ErrUnsupported    apperrors.Error = errkind.ErrValidation.New("unsupported database type")
	ErrIntrospect     apperrors.Error = errkind.ErrConnection.New("unable to read database catalog")
)

// postgres invalid_password and invalid_authorization_specification
var pgAuthCodes = []string{"28P01", "28000"}

// mysql ER_ACCESS_DENIED_ERROR and ER_DBACCESS_DENIED_ERROR
var mysqlAuthCodes = []uint16{1045, 1044}

// classify maps a connect error to ErrConnectDB for rejected credentials and to
// ErrConnectNetwork for everything else.
func classify(err error) apperrors.Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, code := range pgAuthCodes {
			if pgErr.Code == code {
				return ErrConnectDB.Err(err)
			}
		}
		return ErrConnectNetwork.Err(err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		for _, code := range mysqlAuthCodes {
			if myErr.Number == code {
				return ErrConnectDB.Err(err)
			}
		}
		return ErrConnectNetwork.Err(err)
	}
	// pgconn reports some authentication failures before a server error is parsed
	if strings.Contains(err.Error(), "password authentication failed") {
		return ErrConnectDB.Err(err)
	}
	return ErrConnectNetwork.Err(err)
}
