package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitResolveError = 2
)

// exitError carries the process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if eErr, ok := err.(*exitError); ok {
			return eErr.code
		}
		// Usage errors from flag parsing.
		return ExitConfigError
	}
	return ExitSuccess
}

// rootOptions holds persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "composeresolve",
		Short:         "Resolve Docker Compose 2.x files into image and run configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")

	cmd.AddCommand(
		newResolveCommand(opts),
		newPlanCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "composeresolve %s (built %s)\n", Version, BuildTime)
		},
	}
}
