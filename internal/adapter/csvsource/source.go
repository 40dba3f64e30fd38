// Package csvsource reads incident rows from the merged news CSV export.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/incident-data-service/internal/domain"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv has no header row")

const utf8BOM = "\ufeff"

// Source reads every row of a CSV file on each call.
type Source struct {
	path string
}

// New creates a Source for the file at path. The file is not opened until ReadRows.
func New(path string) *Source {
	return &Source{path: path}
}

// Path returns the file the source reads.
func (s *Source) Path() string { return s.path }

// ReadRows opens and parses the whole file.
func (s *Source) ReadRows(ctx context.Context) ([]domain.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open incidents csv: %w", err)
	}
	defer f.Close()

	rows, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return rows, nil
}

// Parse reads a header row followed by data rows. Blank lines are skipped.
// Short rows leave their missing trailing columns absent from the record and
// cells beyond the header are ignored.
func Parse(ctx context.Context, r io.Reader) ([]domain.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse row %d: %w", len(rows)+1, err)
		}

		rec := make(domain.RawRecord, len(header))
		for i, name := range header {
			if i >= len(cells) {
				break
			}
			if name != "" {
				rec[name] = cells[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
