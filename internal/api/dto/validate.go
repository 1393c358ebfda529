package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/oncall-service/internal/domain"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("isodate", validateISODate)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validateISODate accepts YYYY-MM-DD calendar dates.
func validateISODate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}

// Validate checks struct tags and converts failures into a VALIDATION_FAILED error
// whose details map each offending field to the rule it broke.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError("invalid payload", details)
}
