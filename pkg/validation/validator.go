package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNameLength = 256
	MinRounds     = 1
	MaxRounds     = 10_000_000
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report yaml names ("sourceSinks[0].id") rather than Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("nodename", func(fl validator.FieldLevel) bool {
		return ValidateNodeName(fl.Field().String()) == nil
	})
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
}

// Struct validates v against its `validate` struct tags and returns the first
// failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return errors.New("value to validate cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateNodeName checks a node name: not blank, at most MaxNameLength bytes
func ValidateNodeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("node name cannot be blank")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("node name exceeds maximum length of %d bytes", MaxNameLength)
	}
	return nil
}

// ValidateRounds validates the number of rounds of a run
func ValidateRounds(n int) error {
	if n < MinRounds {
		return fmt.Errorf("rounds must be at least %d, got %d", MinRounds, n)
	}
	if n > MaxRounds {
		return fmt.Errorf("rounds must not exceed %d, got %d", MaxRounds, n)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := strings.TrimPrefix(e.Namespace(), rootName(e))
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "nodename":
			return fmt.Errorf("%s: %w", field, ValidateNodeName(e.Value().(string)))
		case "finite":
			return fmt.Errorf("%s: must be a finite number", field)
		case "unique":
			return fmt.Errorf("%s: duplicate %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}

// rootName is the "Document." prefix the validator puts in front of every
// namespace
func rootName(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[:i+1]
	}
	return ""
}
