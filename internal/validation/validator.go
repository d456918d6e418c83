// Package validation plugs go-playground/validator into echo.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

type Validator struct {
	v *validator.Validate
}

// New returns a validator with the project rules registered:
//
//	clock – "HH:MM" or "HH:MM:SS"
//	date  – "YYYY-MM-DD"
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := model.NormalizeClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

// Message flattens validation errors into one readable sentence.
func Message(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "min", "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max", "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "email":
			parts = append(parts, field+" must be a valid email")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
