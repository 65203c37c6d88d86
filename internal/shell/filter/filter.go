// Package filter reads compose files and applies variable substitution
// before they are parsed.
package filter

import (
	"log/slog"
	"os"
	"regexp"
	"sort"

	"github.com/compose-spec/compose-go/v2/template"
	"github.com/joho/godotenv"
)

// =============================================================================
// Reader Filter
// =============================================================================

// Request describes one filtering operation.
type Request struct {
	// File is the path of the file to read.
	File string
	// Properties are explicit substitution values. They take precedence
	// over property files and the process environment.
	Properties map[string]string
	// PropertyFiles are dotenv files; later files override earlier ones.
	PropertyFiles []string
	// UseEnvironment makes process environment variables available.
	UseEnvironment bool
}

// ReaderFilter returns the final text of a file, ready to be parsed.
type ReaderFilter interface {
	Filter(req Request) ([]byte, error)
}

// PropertyFilter substitutes ${VAR}, ${VAR:-default} and ${VAR?err}
// references using compose interpolation rules. "$$" yields a literal "$".
// Unset variables without a default are replaced by an empty string.
type PropertyFilter struct {
	lookupEnv func(string) (string, bool)
	logger    *slog.Logger
}

// NewPropertyFilter creates a filter reading the process environment.
func NewPropertyFilter(logger *slog.Logger) *PropertyFilter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PropertyFilter{
		lookupEnv: os.LookupEnv,
		logger:    logger,
	}
}

// Filter reads req.File and substitutes variable references.
func (f *PropertyFilter) Filter(req Request) ([]byte, error) {
	content, err := os.ReadFile(req.File)
	if err != nil {
		return nil, NewFilterError("read", req.File, ErrReadFailed, err)
	}

	fileValues := map[string]string{}
	if len(req.PropertyFiles) > 0 {
		fileValues, err = godotenv.Read(req.PropertyFiles...)
		if err != nil {
			return nil, NewFilterError("properties", req.File, ErrPropertyFile, err)
		}
	}

	missing := map[string]bool{}
	mapping := func(name string) (string, bool) {
		if v, ok := req.Properties[name]; ok {
			return v, true
		}
		if v, ok := fileValues[name]; ok {
			return v, true
		}
		if req.UseEnvironment {
			if v, ok := f.lookupEnv(name); ok {
				return v, true
			}
		}
		missing[name] = true
		return "", false
	}

	out, err := template.Substitute(string(content), mapping)
	if err != nil {
		return nil, NewFilterError("substitute", req.File, ErrSubstitutionFailed, err)
	}

	bare := bareReferences(string(content))
	var names []string
	for name := range missing {
		if bare[name] {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		sort.Strings(names)
		f.logger.Debug("variables not set",
			"file", req.File,
			"variables", names,
		)
	}

	return []byte(out), nil
}

// referencePattern matches "$$", "$VAR" and "${VAR...}". The braced body
// stops at the first "}" so that several references on one line are seen.
var referencePattern = regexp.MustCompile(`\$(?:\$|([_a-zA-Z][_a-zA-Z0-9]*)|\{([_a-zA-Z][_a-zA-Z0-9]*)([^}]*)\})`)

// bareReferences returns the names referenced without a modifier, as $VAR or
// ${VAR}. ${VAR:-default} and ${VAR:+alt} are expected to fall back when VAR
// is unset.
func bareReferences(content string) map[string]bool {
	names := map[string]bool{}
	for _, m := range referencePattern.FindAllStringSubmatch(content, -1) {
		switch {
		case m[1] != "":
			names[m[1]] = true
		case m[2] != "" && m[3] == "":
			names[m[2]] = true
		}
	}
	return names
}
