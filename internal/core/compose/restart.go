package compose

import (
	"strconv"
	"strings"
)

// =============================================================================
// Restart Policy
// =============================================================================

var knownRestartPolicies = map[string]bool{
	RestartNo:            true,
	RestartAlways:        true,
	RestartOnFailure:     true,
	RestartUnlessStopped: true,
}

// ParseRestartPolicy parses "name[:retry]". Retry defaults to 0.
//
// Example:
//
//	ParseRestartPolicy("on-failure:1") // returns RestartPolicy{Name: "on-failure", Retry: 1}
func ParseRestartPolicy(raw string) (RestartPolicy, error) {
	name, retryText, hasRetry := strings.Cut(strings.TrimSpace(raw), ":")

	if !knownRestartPolicies[name] {
		return RestartPolicy{}, &ParseError{
			Field:   "restart",
			Value:   raw,
			Message: "unknown restart policy, expected no, always, on-failure or unless-stopped",
			Err:     ErrInvalidRestart,
		}
	}

	policy := RestartPolicy{Name: name}
	if !hasRetry {
		return policy, nil
	}

	retry, err := strconv.Atoi(retryText)
	if err != nil || retry < 0 {
		return RestartPolicy{}, &ParseError{
			Field:   "restart",
			Value:   raw,
			Message: "retry count must be a non-negative integer",
			Err:     ErrInvalidRestart,
		}
	}
	policy.Retry = retry
	return policy, nil
}
