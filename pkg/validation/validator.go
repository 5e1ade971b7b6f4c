package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("weekday", validateWeekday)
}

// validateWeekday accepts 0 (Sunday) through 6 (Saturday).
func validateWeekday(fl validator.FieldLevel) bool {
	day := fl.Field().Int()
	return day >= 0 && day <= 6
}

// ErrorResponse describes one field that failed validation.
type ErrorResponse struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Msg   string `json:"message"`
}

// ValidateStruct validates s and returns one entry per failing field, or nil.
func ValidateStruct(s interface{}) []*ErrorResponse {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []*ErrorResponse{{Tag: "invalid", Msg: err.Error()}}
	}

	out := make([]*ErrorResponse, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		element := &ErrorResponse{Field: fe.Namespace(), Tag: fe.Tag()}
		if idx := strings.Index(element.Field, "."); idx >= 0 {
			element.Field = element.Field[idx+1:]
		}

		switch fe.Tag() {
		case "required":
			element.Msg = fmt.Sprintf("field '%s' is required", element.Field)
		case "gte":
			element.Msg = fmt.Sprintf("field '%s' must be at least %s", element.Field, fe.Param())
		case "max":
			element.Msg = fmt.Sprintf("field '%s' must be at most %s characters", element.Field, fe.Param())
		case "datetime":
			element.Msg = fmt.Sprintf("field '%s' must be a date formatted YYYY-MM-DD", element.Field)
		case "weekday":
			element.Msg = fmt.Sprintf("field '%s' must be a weekday between 0 (Sunday) and 6 (Saturday)", element.Field)
		default:
			element.Msg = fmt.Sprintf("field '%s' failed validation '%s'", element.Field, element.Tag)
		}
		out = append(out, element)
	}
	return out
}
