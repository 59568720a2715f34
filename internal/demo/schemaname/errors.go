package schemaname

import (
	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

var (
	ErrInvalidSchema        apperrors.Error = errkind.ErrValidation.New("invalid schema name")
	ErrInvalidBraceCount    apperrors.Error = ErrInvalidSchema.New("unbalanced template braces")
	ErrInvalidContent       apperrors.Error = ErrInvalidSchema.New("invalid template placeholder")
	ErrInvalidStartingBrace apperrors.Error = ErrInvalidSchema.New("unexpected opening brace")
	ErrInvalidEndingBrace   apperrors.Error = ErrInvalidSchema.New("unexpected closing brace")
	ErrUnknownSchema        apperrors.Error = ErrInvalidSchema.New("schema is not available on the target")
)
