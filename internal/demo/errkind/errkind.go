// Package errkind declares the failure families every pipeline error belongs to.
package errkind

import (
	"errors"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
)

var (
	ErrValidation  apperrors.Error = apperrors.New("validation error")
	ErrConnection  apperrors.Error = apperrors.New("connection error")
	ErrReference   apperrors.Error = apperrors.New("reference error")
	ErrPersistence apperrors.Error = apperrors.New("persistence error")
)

type Kind int

const (
	None Kind = iota
	Validation
	Connection
	Reference
	Persistence
	// Engine covers everything raised by the indexing and reasoning collaborators.
	Engine
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Validation:
		return "validation"
	case Connection:
		return "connection"
	case Reference:
		return "reference"
	case Persistence:
		return "persistence"
	}
	return "engine"
}

// Classify maps err onto its family. Errors outside the hierarchy are Engine errors.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return None
	case errors.Is(err, ErrValidation):
		return Validation
	case errors.Is(err, ErrConnection):
		return Connection
	case errors.Is(err, ErrReference):
		return Reference
	case errors.Is(err, ErrPersistence):
		return Persistence
	}
	return Engine
}
