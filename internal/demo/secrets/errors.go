package secrets

import (
	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

var (
	ErrMissingKey  apperrors.Error = errkind.ErrValidation.New("encryption key is not configured")
	ErrDecrypt     apperrors.Error = errkind.ErrValidation.New("unable to decrypt value")
	ErrInvalidHash apperrors.Error = errkind.ErrValidation.New("malformed secret hash")
)
