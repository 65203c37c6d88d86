package compose

import (
	"github.com/alessio/shellescape"
	"github.com/google/shlex"
)

// Arguments is a command or entrypoint in canonical shell form.
// Exec-form declarations are quoted into an equivalent shell string when
// they are read, so every consumer sees a single representation.
type Arguments struct {
	Shell string `json:"shell"`
}

// ShellForm wraps a shell command string verbatim.
func ShellForm(command string) *Arguments {
	return &Arguments{Shell: command}
}

// ExecForm quotes each element so the joined string splits back into args.
//
// Example:
//
//	ExecForm([]string{"sh", "-c", "echo hi"}).Shell // returns "sh -c 'echo hi'"
func ExecForm(args []string) *Arguments {
	return &Arguments{Shell: shellescape.QuoteCommand(args)}
}

// Exec splits the shell string into an argument vector.
func (a *Arguments) Exec() ([]string, error) {
	if a == nil {
		return nil, nil
	}
	return shlex.Split(a.Shell)
}

// String returns the shell form.
func (a *Arguments) String() string {
	if a == nil {
		return ""
	}
	return a.Shell
}
