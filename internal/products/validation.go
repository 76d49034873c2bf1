package products

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/catalog/internal/shared"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of req and returns every violation as
// one validation failure, in field order.
func (s *Service) validateStruct(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return shared.NewValidationError(messages...)
}

func fieldMessage(fe validator.FieldError) string {
	field := "'" + fe.Field() + "'"
	switch fe.Tag() {
	case "required":
		return field + " must not be empty."
	case "max":
		return field + " must be " + fe.Param() + " characters or fewer."
	case "gte":
		return field + " must be greater than or equal to '" + fe.Param() + "'."
	case "gt":
		return field + " must be greater than '" + fe.Param() + "'."
	default:
		return field + " is invalid."
	}
}
