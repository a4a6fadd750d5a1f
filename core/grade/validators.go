package grade

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/penilaian/core"
)

var (
	aspectLabelTag  = "aspectlabel"
	aspectLabelText = "must contain letters, digits or underscores (max 63 once spaces become underscores)"
)

// InitValidators registers the grade validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(aspectLabelTag, aspectLabelValidation)
	core.RegisterCustomTranslation(validate, translator, aspectLabelTag, aspectLabelText)
}

// Custom Validators

// aspectLabelValidation checks that a label maps to a usable code
func aspectLabelValidation(fl validator.FieldLevel) bool {
	if label, ok := fl.Field().Interface().(string); ok {
		return ValidateCode(Normalize(label)) == nil
	}
	return false
}
