package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
)

// FieldError describes one invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validate *validator.Validate
}

// NewValidator creates the request validator used by c.Validate
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsValidPhoneNumber(fl.Field().String())
	})
	return &CustomValidator{validate: v}
}

// Validate implements echo.Validator. Failures are MalformedInput errors
// listing every invalid field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperror.Wrap(apperror.KindMalformedInput, "Invalid data", "The request could not be validated", err)
	}

	details := make([]FieldError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details = append(details, FieldError{
			Field:   fieldErr.Field(),
			Message: describe(fieldErr),
		})
	}
	return apperror.MalformedInput("Invalid data", details[0].Message).WithDetails(details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", fe.Field(), fe.Param(), unit(fe))
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", fe.Field(), fe.Param(), unit(fe))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "phone":
		return "Must be a valid phone number"
	case "latitude", "longitude":
		return fmt.Sprintf("%s must be a valid coordinate", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func unit(fe validator.FieldError) string {
	if fe.Kind() == reflect.String {
		return " characters"
	}
	return ""
}
