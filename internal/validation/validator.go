package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"guardians/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Validator provides request validation functionality
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance. Field names in errors follow
// the json tags so they match what the client sent.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s against its `validate` tags. It returns nil when s is valid.
func (v *Validator) Struct(s interface{}) domain.ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationErrors{domain.NewValidationError(err.Error())}
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, toValidationError(fe))
	}
	return out
}

// fieldPath drops the root struct name: "CreateQuizRequest.questions[0].prompt" -> "questions[0].prompt".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func toValidationError(fe validator.FieldError) domain.ValidationError {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return domain.NewMissingFieldError(field)
	case "oneof":
		ve := domain.NewInvalidFormatError(field, fe.Value())
		ve.Message = fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
		return ve
	case "min", "gte":
		return rangeError(field, fe, "at least")
	case "max", "lte":
		return rangeError(field, fe, "at most")
	default:
		return domain.NewInvalidFormatError(field, fe.Value())
	}
}

func rangeError(field string, fe validator.FieldError, bound string) domain.ValidationError {
	msg := fmt.Sprintf("%s must be %s %s", field, bound, fe.Param())
	switch fe.Kind() {
	case reflect.String:
		msg = fmt.Sprintf("%s must be %s %s characters long", field, bound, fe.Param())
	case reflect.Slice, reflect.Array, reflect.Map:
		msg = fmt.Sprintf("%s must contain %s %s items", field, bound, fe.Param())
	}
	return domain.ValidationError{
		Field:   field,
		Code:    domain.CodeOutOfRange,
		Message: msg,
		Value:   fe.Value(),
	}
}
