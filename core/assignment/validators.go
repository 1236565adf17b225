package assignment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/unitrack/core"
)

var (
	statusTag  = "asgstatus"
	statusText = "{0} must be one of pending, in_progress, completed, overdue"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func IsKnownStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func statusValidation(fl validator.FieldLevel) bool {
	return IsKnownStatus(fl.Field().String())
}
