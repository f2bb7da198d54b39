package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationMessage flattens the first field error into a client-facing
// message.
func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "Invalid request body"
	}

	fieldError := fieldErrors[0]
	switch fieldError.Tag() {
	case "required":
		return fieldError.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fieldError.Field() + " must be at least " + fieldError.Param() + " characters"
	case "oneof":
		return fieldError.Field() + " must be one of: " + fieldError.Param()
	case "gt":
		return fieldError.Field() + " must be greater than " + fieldError.Param()
	default:
		return fieldError.Field() + " is invalid"
	}
}
