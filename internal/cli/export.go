package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	seed       uint64
	now        string
	out        string
	categories string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <csv>",
		Short: "Write the normalized incidents of a CSV as JSON",
		Long: `Normalize every row of an incident CSV and write the result as a JSON array.

Output is reproducible when both --seed (synthesized coordinates) and
--now (default publication date) are given. Geocoding is never used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for synthesized coordinates (0 picks a random seed)")
	cmd.Flags().StringVar(&opts.now, "now", "", "RFC 3339 time used as the default publication date")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.categories, "categories", "", "category table YAML (default embedded table)")

	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, opts *exportOptions, path string) error {
	f := newFormatter(rootOpts, cmd)

	if opts.now != "" {
		now, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return newExitError(ExitCommandError, "invalid --now", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(now))
		defer domain.SetClock(nil)
	}

	classifier, err := loadClassifier(opts.categories)
	if err != nil {
		return newExitError(ExitCommandError, "load categories", err)
	}

	resolverCfg := domain.DefaultResolverConfig()
	resolverCfg.Seed = opts.seed
	_, incidents, err := offlineLoad(cmd.Context(), path, resolverCfg, classifier, observability.DiscardLogger())
	if err != nil {
		return newExitError(ExitCommandError, "load incidents", err)
	}

	var w io.Writer = f.out
	if opts.out != "" {
		file, err := os.Create(opts.out)
		if err != nil {
			return newExitError(ExitCommandError, "create output", err)
		}
		defer file.Close()
		w = file
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(incidents); err != nil {
		return newExitError(ExitCommandError, "write incidents", err)
	}

	f.verbosef("exported %d incidents from %s", len(incidents), path)
	if opts.out != "" && !f.json() {
		fmt.Fprintf(f.out, "Wrote %d incidents to %s\n", len(incidents), opts.out)
	}
	return nil
}
