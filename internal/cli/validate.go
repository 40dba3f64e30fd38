package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/observability"
	"github.com/spf13/cobra"
)

// Phase tracks pass/fail for one validation check. Notes are informational
// and never fail a phase.
type Phase struct {
	Name   string   `json:"name"`
	Passed bool     `json:"passed"`
	Errors []string `json:"errors,omitempty"`
	Notes  []string `json:"notes,omitempty"`
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

func (p *Phase) notef(format string, args ...any) {
	p.Notes = append(p.Notes, fmt.Sprintf(format, args...))
}

// ValidationReport is the result of checking one CSV.
type ValidationReport struct {
	Path   string   `json:"path"`
	Rows   int      `json:"rows"`
	Valid  bool     `json:"valid"`
	Phases []*Phase `json:"phases"`
}

type validateOptions struct {
	categories string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <csv>",
		Short: "Check an incident CSV for data defects",
		Long: `Load an incident CSV the way the service does and report defects that
normalization would silently paper over: duplicate identifiers, unusable
source coordinates and unparseable publication dates.

Exits 1 when any check fails and 2 when the file cannot be read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.categories, "categories", "", "category table YAML (default embedded table)")
	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, opts *validateOptions, path string) error {
	f := newFormatter(rootOpts, cmd)

	classifier, err := loadClassifier(opts.categories)
	if err != nil {
		return newExitError(ExitCommandError, "load categories", err)
	}

	resolverCfg := domain.DefaultResolverConfig()
	resolverCfg.Seed = 1
	rows, incidents, err := offlineLoad(cmd.Context(), path, resolverCfg, classifier, observability.DiscardLogger())
	if err != nil {
		return newExitError(ExitCommandError, "load incidents", err)
	}
	f.verbosef("loaded %d rows from %s", len(rows), path)

	report := validate(path, rows, incidents)
	if err := writeReport(f, report); err != nil {
		return err
	}
	if !report.Valid {
		return newExitError(ExitFailure, fmt.Sprintf("validation failed for %s", path), nil)
	}
	return nil
}

// validate runs every check over rows and their normalized incidents.
func validate(path string, rows []domain.RawRecord, incidents []domain.Incident) *ValidationReport {
	report := &ValidationReport{
		Path: path,
		Rows: len(rows),
		Phases: []*Phase{
			validateRows(rows),
			validateIdentifiers(rows, incidents),
			validateCoordinates(rows, incidents),
			validateDates(rows, incidents),
			validateCategories(incidents),
		},
	}
	report.Valid = true
	for _, p := range report.Phases {
		p.Passed = len(p.Errors) == 0
		report.Valid = report.Valid && p.Passed
	}
	return report
}

func validateRows(rows []domain.RawRecord) *Phase {
	p := &Phase{Name: "Rows"}
	if len(rows) == 0 {
		p.errorf("no data rows")
		return p
	}
	for _, col := range []string{domain.ColSourceFile, domain.ColPublishedDate, domain.ColIncidentLocation, domain.ColNewsType} {
		missing := 0
		for _, rec := range rows {
			if strings.TrimSpace(rec[col]) == "" {
				missing++
			}
		}
		if missing > 0 {
			p.notef("%d of %d rows have no %s", missing, len(rows), col)
		}
	}
	return p
}

func validateIdentifiers(rows []domain.RawRecord, incidents []domain.Incident) *Phase {
	p := &Phase{Name: "Identifiers"}
	firstSeen := make(map[string]int, len(incidents))
	positional := 0
	for i, inc := range incidents {
		if strings.TrimSpace(rows[i][domain.ColSourceFile]) == "" {
			positional++
		}
		if prev, ok := firstSeen[inc.ID]; ok {
			p.errorf("id %q on row %d duplicates row %d", inc.ID, i, prev)
			continue
		}
		firstSeen[inc.ID] = i
	}
	if positional > 0 {
		p.notef("%d rows use a positional id", positional)
	}
	return p
}

func validateCoordinates(rows []domain.RawRecord, incidents []domain.Incident) *Phase {
	p := &Phase{Name: "Coordinates"}
	counts := make(map[string]int, 3)
	for i, inc := range incidents {
		counts[inc.GeoSource]++
		raw := strings.TrimSpace(rows[i][domain.ColIncidentLocation])
		if raw != "" && inc.GeoSource == domain.GeoSourceSynthesized {
			p.errorf("row %d (%s): unusable coordinates %q", i, inc.ID, raw)
			continue
		}
		if inc.GeoSource == domain.GeoSourceOriginal && !domain.InRange(inc.Latitude, inc.Longitude) {
			p.errorf("row %d (%s): coordinates %q outside WGS-84 bounds", i, inc.ID, raw)
		}
	}
	p.notef("%d from source, %d synthesized", counts[domain.GeoSourceOriginal], counts[domain.GeoSourceSynthesized])
	return p
}

func validateDates(rows []domain.RawRecord, incidents []domain.Incident) *Phase {
	p := &Phase{Name: "Publication dates"}
	defaulted := 0
	for i, inc := range incidents {
		if strings.TrimSpace(rows[i][domain.ColPublishedDate]) == "" {
			defaulted++
			continue
		}
		if inc.PublishedAt.IsZero() {
			p.errorf("row %d (%s): unparseable date %q", i, inc.ID, inc.PublishedDate)
		}
	}
	if defaulted > 0 {
		p.notef("%d rows default to the load time", defaulted)
	}
	return p
}

func validateCategories(incidents []domain.Incident) *Phase {
	p := &Phase{Name: "Categories"}
	unmapped := make(map[string]int)
	for _, inc := range incidents {
		if inc.Category == domain.CategoryOther {
			unmapped[inc.NewsType]++
		}
	}
	for _, c := range domain.Summarize(incidents, 0, nil).Categories {
		p.notef("%s: %d", c.Key, c.Count)
	}
	for _, newsType := range slices.Sorted(maps.Keys(unmapped)) {
		p.notef("uncategorized news type %q: %d", newsType, unmapped[newsType])
	}
	return p
}

func writeReport(f *formatter, report *ValidationReport) error {
	if f.json() {
		return f.encode(report)
	}

	fmt.Fprintf(f.out, "=== Incident CSV Validation: %s ===\n\n", report.Path)
	for _, p := range report.Phases {
		status := "\033[32mPASS\033[0m"
		if !p.Passed {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.Errors))
		}
		fmt.Fprintf(f.out, "  %-24s %s\n", p.Name, status)
	}
	fmt.Fprintf(f.out, "\nRows: %d\n", report.Rows)

	for _, p := range report.Phases {
		if len(p.Errors) == 0 && (!f.verbose || len(p.Notes) == 0) {
			continue
		}
		fmt.Fprintf(f.out, "\n--- %s ---\n", p.Name)
		for i, e := range p.Errors {
			fmt.Fprintf(f.out, "  [%d] %s\n", i+1, e)
		}
		if f.verbose {
			for _, n := range p.Notes {
				fmt.Fprintf(f.out, "  note: %s\n", n)
			}
		}
	}

	if report.Valid {
		fmt.Fprintln(f.out, "\nAll validations passed.")
	} else {
		fmt.Fprintln(f.out, "\nValidation FAILED.")
	}
	return nil
}
