// Package validation contains custom validation functions for the application to use for input validation.
package validation

import (
	"fmt"
	"strings"

	"NotesWebService/models"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the application's custom tags registered.
func New() (*validator.Validate, error) {
	return register(validator.New(), map[string]validator.Func{
		"fieldValidator":  FieldValidator,
		"filterValidator": FilterValidator,
	})
}

// MustNew is like New but panics if a tag cannot be registered.
func MustNew() *validator.Validate {
	validate, err := New()
	if err != nil {
		panic(err)
	}
	return validate
}

func register(validate *validator.Validate, tags map[string]validator.Func) (*validator.Validate, error) {
	for tag, fn := range tags {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %q validation: %w", tag, err)
		}
	}
	return validate, nil
}

// FilterValidator accepts the task listing filters "all", "active" and "completed".
func FilterValidator(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.FilterAll, models.FilterActive, models.FilterCompleted:
		return true
	}
	return false
}

// FieldValidator is a validation function that checks if the field value is blank.
// It returns true if the field value has non-space characters, and false otherwise.
func FieldValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
