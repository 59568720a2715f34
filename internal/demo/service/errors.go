package service

import (
	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/connector"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dberror"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

var (
	ErrInvalidSchemas apperrors.Error = errkind.ErrValidation.New("invalid schemas")
	ErrInvalidInput   apperrors.Error = errkind.ErrValidation.New("invalid input")
	ErrClientCreation apperrors.Error = errkind.ErrValidation.New("unable to create client")
	ErrReference      apperrors.Error = errkind.ErrReference.New("referenced resource does not exist")
	ErrStageOrder     apperrors.Error = errkind.ErrReference.New("provisioning stage not reached")
	ErrNotConfigured  apperrors.Error = errkind.ErrValidation.New("service dependency not configured")

	// connection tester and store failures are surfaced as they are
	ErrConnectDB      = connector.ErrConnectDB
	ErrConnectNetwork = connector.ErrConnectNetwork
	ErrNotFound       = dberror.ErrNotFound
)
