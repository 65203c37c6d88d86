// Package resolver turns an external compose config pointer into resolved
// image configurations. It is the imperative shell around the compose core:
// the only I/O it performs is reading the compose file through a filter.
package resolver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artpar/composeresolve/internal/core/compose"
	"github.com/artpar/composeresolve/internal/core/hostpath"
	"github.com/artpar/composeresolve/internal/shell/filter"
)

// =============================================================================
// Input Types
// =============================================================================

// External config keys.
const (
	KeyComposeFile = "composeFile"
	KeyBasedir     = "basedir"

	DefaultComposeFile = "docker-compose.yml"
)

// ExternalConfig points at a compose file and the directory relative bind
// paths are resolved against. Basedir need not contain the compose file.
type ExternalConfig struct {
	ComposeFile string
	Basedir     string
}

// ExternalConfigFromMap reads the composeFile and basedir keys.
func ExternalConfigFromMap(m map[string]string) ExternalConfig {
	return ExternalConfig{
		ComposeFile: m[KeyComposeFile],
		Basedir:     m[KeyBasedir],
	}
}

// ProjectContext is the caller's build context. It is forwarded to the
// reader filter and anchors relative external config paths.
type ProjectContext struct {
	// Name is used to derive image names; defaults to the basedir name.
	Name string
	// Basedir is the project root; defaults to the working directory.
	Basedir string
	// Properties, PropertyFiles and UseEnvironment drive variable substitution.
	Properties     map[string]string
	PropertyFiles  []string
	UseEnvironment bool
}

// =============================================================================
// Resolver
// =============================================================================

// Resolver resolves compose files. It holds no per-call state and is safe
// for concurrent use as long as its filter is.
type Resolver struct {
	filter filter.ReaderFilter
	logger *slog.Logger
}

// New creates a Resolver. A nil logger discards output.
func New(f filter.ReaderFilter, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		filter: f,
		logger: logger,
	}
}

// Resolve reads, validates and translates the compose file named by ext.
// It returns one ImageConfiguration per declared service in declaration
// order, or an error and no configurations at all.
func (r *Resolver) Resolve(ext ExternalConfig, project ProjectContext) ([]compose.ImageConfiguration, error) {
	paths, err := resolvePaths(ext, project)
	if err != nil {
		return nil, err
	}

	name := project.Name
	if name == "" {
		name = filepath.Base(paths.basedir)
	}

	r.logger.Debug("resolving compose file",
		"compose_file", paths.composeFile,
		"basedir", paths.basedir,
		"project", name,
	)

	content, err := r.filter.Filter(filter.Request{
		File:           paths.composeFile,
		Properties:     project.Properties,
		PropertyFiles:  paths.propertyFiles,
		UseEnvironment: project.UseEnvironment,
	})
	if err != nil {
		return nil, &ResolveError{Op: "filter", File: paths.composeFile, Err: fmt.Errorf("%w: %w", ErrUnreadableSource, err)}
	}

	doc, err := compose.ParseDocument(content)
	if err != nil {
		return nil, &ResolveError{Op: "parse", File: paths.composeFile, Err: err}
	}

	if err := compose.CheckVersion(doc); err != nil {
		return nil, &ResolveError{Op: "version", File: paths.composeFile, Err: err}
	}

	services, err := doc.Services()
	if err != nil {
		return nil, &ResolveError{Op: "translate", File: paths.composeFile, Err: err}
	}
	for _, svc := range services {
		if unknown := compose.UnknownKeys(svc); len(unknown) > 0 {
			r.logger.Debug("ignoring unsupported service keys",
				"service", svc.Name,
				"keys", unknown,
			)
		}
	}

	images, err := compose.Translate(doc, compose.TranslateOptions{
		Basedir:     paths.basedir,
		ProjectName: name,
	})
	if err != nil {
		return nil, &ResolveError{Op: "translate", File: paths.composeFile, Err: err}
	}

	r.logger.Debug("resolved compose file",
		"compose_file", paths.composeFile,
		"services", len(images),
	)
	return images, nil
}

// =============================================================================
// Path Handling
// =============================================================================

type resolvedPaths struct {
	composeFile   string
	basedir       string
	propertyFiles []string
}

// resolvePaths anchors every relative input:
// project basedir → working directory, basedir → project basedir,
// compose file and property files → basedir / project basedir.
func resolvePaths(ext ExternalConfig, project ProjectContext) (resolvedPaths, error) {
	root := project.Basedir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return resolvedPaths{}, fmt.Errorf("%w: working directory: %w", ErrInvalidExternalConfig, err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return resolvedPaths{}, fmt.Errorf("%w: project basedir %q: %w", ErrInvalidExternalConfig, project.Basedir, err)
	}

	basedir := root
	if ext.Basedir != "" {
		basedir = hostpath.Resolve(ext.Basedir, root)
	}

	info, err := os.Stat(basedir)
	if err != nil {
		return resolvedPaths{}, fmt.Errorf("%w: basedir %q: %w", ErrInvalidExternalConfig, basedir, err)
	}
	if !info.IsDir() {
		return resolvedPaths{}, fmt.Errorf("%w: basedir %q is not a directory", ErrInvalidExternalConfig, basedir)
	}

	composeFile := ext.ComposeFile
	if composeFile == "" {
		composeFile = DefaultComposeFile
	}
	composeFile = hostpath.Resolve(composeFile, basedir)

	propertyFiles := make([]string, 0, len(project.PropertyFiles))
	for _, p := range project.PropertyFiles {
		propertyFiles = append(propertyFiles, hostpath.Resolve(p, root))
	}

	return resolvedPaths{
		composeFile:   composeFile,
		basedir:       basedir,
		propertyFiles: propertyFiles,
	}, nil
}
