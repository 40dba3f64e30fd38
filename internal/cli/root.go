// Package cli implements the incidents command line: the HTTP service and
// offline tools for checking and exporting an incident CSV.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string
}

var validFormats = []string{formatText, formatJSON}

// NewRootCommand creates the incidents root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "Crime incident data service",
		Long:  "Serves, validates and exports incidents normalized from a news-article CSV.",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return newExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatText, "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *formatter {
	return &formatter{
		format:  opts.Format,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		verbose: opts.Verbose,
	}
}
