package resolver

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrUnreadableSource      = errors.New("compose file is unreadable")
	ErrInvalidExternalConfig = errors.New("invalid external config")
)

// ResolveError wraps a failed resolve step with the compose file involved.
type ResolveError struct {
	Op   string // filter, parse, version, translate
	File string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
