package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; a validator caches struct metadata.
var validate = newValidator()

// newValidator reports fields by their yaml keys, so errors name what the
// user wrote in the file.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors is every problem found in one configuration.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	messages := make([]string, 0, len(ve))
	for _, e := range ve {
		messages = append(messages, e.Error())
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

// Validate checks cfg against its struct tags and the rules tags cannot
// express. The returned error is a ValidationErrors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationErrors{{Field: "config", Message: "is nil"}}
	}

	var out ValidationErrors
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Field:   fieldPath(fe.Namespace()),
				Message: describe(fe),
			})
		}
	}

	if !cfg.Hardware.Any() {
		out = append(out, ValidationError{Field: "hardware", Message: "at least one group must be enabled"})
	}

	if len(out) > 0 {
		return out
	}
	return nil
}

// fieldPath turns "Config.polling.interval_ms" into "polling.interval_ms".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "hostname_rfc1123|ip":
		return fmt.Sprintf("invalid host %q", fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
