package models

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/basejump-ai/basejump-demo/pkg/types"
)

var (
	v    *validator.Validate
	once sync.Once
)

// V returns the validator used for every model.
func V() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterValidation("clientType", func(fl validator.FieldLevel) bool {
			return types.ClientType(fl.Field().String()).IsValid()
		})
		v.RegisterValidation("userRole", func(fl validator.FieldLevel) bool {
			return types.UserRole(fl.Field().String()).IsValid()
		})
	})
	return v
}
