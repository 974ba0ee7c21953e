package session

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/pratik071103/case-link-share/core"
)

var (
	attendanceTag  = "attendance"
	attendanceText = "attendance must be one of present, absent, late, excused"
)

// InitValidators registers the session validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(attendanceTag, func(fl validator.FieldLevel) bool {
		return IsAttendance(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, attendanceTag, attendanceText)
}
