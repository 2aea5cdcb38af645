// Package validation wraps go-playground/validator with the project's
// custom tags and turns its errors into field/message pairs for the
// error envelope.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"hotelbooking/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders v for AppError.Details.
func (v ValidationErrors) Details() map[string]any {
	return map[string]any{"errors": []ValidationError(v)}
}

func Field(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// New returns a validator that reports JSON field names and knows the
// "provider" tag.
func New() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("provider", validateProvider); err != nil {
		return nil, fmt.Errorf("register 'provider' validator: %w", err)
	}

	return v, nil
}

func validateProvider(fl validator.FieldLevel) bool {
	return model.IsKnownProvider(strings.ToLower(fl.Field().String()))
}

// Struct validates s and translates any failures.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return Translate(validationErrs)
	}
	return err
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required", "required_without":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "provider":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), strings.Join(model.Providers, ", "))
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
