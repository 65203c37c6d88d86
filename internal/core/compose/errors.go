// Package compose translates Docker Compose 2.x service definitions into
// resolved image configurations.
// This is part of the Functional Core - all functions are pure with no I/O.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("compose document is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Version errors. Both messages name the supported 2.x family.
	ErrNoVersion          = errors.New("compose document declares no version, a 2.x version is required")
	ErrUnsupportedVersion = errors.New("unsupported compose version, only 2.x is supported")

	// Compose structure errors
	ErrNoServices     = errors.New("compose document must define at least one service")
	ErrInvalidService = errors.New("invalid service definition")

	// Field errors
	ErrInvalidBind    = errors.New("invalid volume bind")
	ErrInvalidRestart = errors.New("invalid restart policy")
	ErrInvalidField   = errors.New("invalid field value")
)

// ParseError wraps errors with context about where translation failed.
type ParseError struct {
	Service string // e.g., "web"
	Field   string // e.g., "volumes[2]"
	Value   string // offending raw value, if any
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var where string
	switch {
	case e.Service != "" && e.Field != "":
		where = fmt.Sprintf("services.%s.%s", e.Service, e.Field)
	case e.Service != "":
		where = "services." + e.Service
	default:
		where = e.Field
	}

	msg := e.Message
	if e.Value != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Value)
	}
	if where != "" {
		return fmt.Sprintf("%s: %s", where, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError without a service context.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// newFieldError creates a ParseError scoped to one service field.
func newFieldError(service, field, value, message string, err error) *ParseError {
	return &ParseError{
		Service: service,
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}
