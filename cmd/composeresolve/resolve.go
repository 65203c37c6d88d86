package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/composeresolve/internal/core/compose"
	"github.com/artpar/composeresolve/internal/core/deployment"
	"github.com/artpar/composeresolve/internal/shell/filter"
	"github.com/artpar/composeresolve/internal/shell/resolver"
	"github.com/spf13/cobra"
)

// =============================================================================
// Resolve Options
// =============================================================================

// resolveOptions holds the flags of the resolve and plan commands.
type resolveOptions struct {
	root *rootOptions

	file          string
	basedir       string
	projectName   string
	properties    []string
	propertyFiles []string
	output        string
	noEnv         bool
}

func (o *resolveOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.file, "file", "f", "", "Compose file (relative to the basedir)")
	flags.StringVar(&o.basedir, "basedir", "", "Directory relative bind paths are resolved against")
	flags.StringVar(&o.projectName, "project-name", "", "Project name used for derived image names")
	flags.StringArrayVarP(&o.properties, "property", "p", nil, "Substitution variable as KEY=VALUE (repeatable)")
	flags.StringArrayVar(&o.propertyFiles, "property-file", nil, "Dotenv file with substitution variables (repeatable)")
	flags.StringVarP(&o.output, "output", "o", "", "Output format: json or yaml")
	flags.BoolVar(&o.noEnv, "no-env", false, "Do not substitute process environment variables")
}

// session is a loaded configuration with flag overrides applied.
type session struct {
	cfg    *Config
	logger *slog.Logger
}

// load reads the config file and applies flags that were set explicitly.
func (o *resolveOptions) load(cmd *cobra.Command) (*session, error) {
	cfg, err := LoadConfig(o.root.configPath)
	if err != nil {
		return nil, &exitError{code: ExitConfigError, err: fmt.Errorf("configuration error: %w", err)}
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.Resolve.ComposeFile = o.file
	}
	if flags.Changed("basedir") {
		cfg.Resolve.Basedir = o.basedir
	}
	if flags.Changed("project-name") {
		cfg.Resolve.ProjectName = o.projectName
	}
	if flags.Changed("property-file") {
		cfg.Resolve.PropertyFiles = append(cfg.Resolve.PropertyFiles, o.propertyFiles...)
	}
	if flags.Changed("output") {
		cfg.Output.Format = o.output
	}
	if o.noEnv {
		cfg.Resolve.UseEnvironment = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, &exitError{code: ExitConfigError, err: fmt.Errorf("configuration error: %w", err)}
	}

	return &session{
		cfg:    cfg,
		logger: SetupLogger(cfg, cmd.ErrOrStderr()),
	}, nil
}

// resolve runs the resolver with the session configuration.
func (o *resolveOptions) resolve(s *session) ([]compose.ImageConfiguration, error) {
	props, err := parseProperties(o.properties)
	if err != nil {
		return nil, &exitError{code: ExitConfigError, err: err}
	}

	ext := resolver.ExternalConfig{
		ComposeFile: s.cfg.Resolve.ComposeFile,
		Basedir:     s.cfg.Resolve.Basedir,
	}
	project := resolver.ProjectContext{
		Name:           s.cfg.Resolve.ProjectName,
		Properties:     props,
		PropertyFiles:  s.cfg.Resolve.PropertyFiles,
		UseEnvironment: s.cfg.Resolve.UseEnvironment,
	}

	r := resolver.New(filter.NewPropertyFilter(s.logger), s.logger)
	images, err := r.Resolve(ext, project)
	if err != nil {
		return nil, &exitError{code: ExitResolveError, err: err}
	}
	return images, nil
}

// parseProperties turns KEY=VALUE flags into a map. Later flags win.
func parseProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q: expected KEY=VALUE", pair)
		}
		props[key] = value
	}
	return props, nil
}

// =============================================================================
// Commands
// =============================================================================

func newResolveCommand(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{root: root}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the image configurations declared in a compose file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			images, err := opts.resolve(s)
			if err != nil {
				return err
			}
			s.logger.Info("resolved compose file",
				"file", s.cfg.Resolve.ComposeFile,
				"services", len(images),
			)
			if err := writeOutput(cmd.OutOrStdout(), s.cfg.Output.Format, images); err != nil {
				return &exitError{code: ExitResolveError, err: err}
			}
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func newPlanCommand(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{root: root}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print Docker container plans in start order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			images, err := opts.resolve(s)
			if err != nil {
				return err
			}

			project, err := projectName(s.cfg.Resolve)
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}

			ordered := deployment.StartOrder(images)
			plans := make([]deployment.ContainerPlan, 0, len(ordered))
			for _, img := range ordered {
				plan, err := deployment.BuildContainerPlan(deployment.BuildContainerPlanParams{
					ProjectName: project,
					Image:       img,
				})
				if err != nil {
					return &exitError{code: ExitResolveError, err: err}
				}
				plans = append(plans, plan)
			}

			if err := writeOutput(cmd.OutOrStdout(), s.cfg.Output.Format, plans); err != nil {
				return &exitError{code: ExitResolveError, err: err}
			}
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

// projectName mirrors the resolver default: the configured name, else the
// base name of the absolute basedir.
func projectName(cfg ResolveConfig) (string, error) {
	if cfg.ProjectName != "" {
		return cfg.ProjectName, nil
	}
	basedir := cfg.Basedir
	if basedir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		basedir = wd
	}
	abs, err := filepath.Abs(basedir)
	if err != nil {
		return "", err
	}
	return filepath.Base(abs), nil
}
