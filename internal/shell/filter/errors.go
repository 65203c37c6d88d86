package filter

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrReadFailed         = errors.New("file could not be read")
	ErrPropertyFile       = errors.New("property file could not be loaded")
	ErrSubstitutionFailed = errors.New("variable substitution failed")
)

// FilterError wraps errors with the file being filtered.
type FilterError struct {
	Op   string // read, properties, substitute
	File string
	Err  error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// NewFilterError creates a FilterError classified under kind.
func NewFilterError(op, file string, kind, cause error) *FilterError {
	return &FilterError{
		Op:   op,
		File: file,
		Err:  fmt.Errorf("%w: %w", kind, cause),
	}
}
