package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("notblank", validators.NotBlank) //nolint:errcheck
	return v
}

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field string // JSON path, e.g. "subjects[1].name"
	Rule  string // validator tag, e.g. "required"
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "min":
		return fmt.Sprintf("%s must not be empty", e.Field)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field)
	case "gte":
		return fmt.Sprintf("%s must not be negative", e.Field)
	default:
		return fmt.Sprintf("%s failed %q validation", e.Field, e.Rule)
	}
}

// Is matches ErrInvalid.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Validate checks v against its validate struct tags. The returned error is
// a *ValidationError for the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		// Drop the leading struct name: "Result.subjects[0].name" → "subjects[0].name".
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		return &ValidationError{Field: field, Rule: fe.Tag()}
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
