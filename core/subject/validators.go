package subject

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/unitrack/core"
)

var (
	gradeTag  = "grade"
	gradeText = "{0} must be one of A+, A, A-, B+, B, B-, C+, C, C-, D+, D, E, F"
)

// InitValidators registers the subject validators.
// Only the API boundary validates grades: the GPA math itself accepts anything.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTag, gradeValidation)
	core.RegisterCustomTranslation(validate, translator, gradeTag, gradeText)
}

func gradeValidation(fl validator.FieldLevel) bool {
	return IsKnownGrade(fl.Field().String())
}
