package schemaname

import "github.com/go-playground/validator/v10"

// TemplateValidator is registered as the "schemaTemplate" tag.
func TemplateValidator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	return ValidateBraces(s) == nil
}
