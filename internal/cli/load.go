package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/incident-data-service/internal/adapter/csvsource"
	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/pipeline"
)

// loadClassifier returns the embedded category table, or the one at path when set.
func loadClassifier(path string) (*domain.Classifier, error) {
	if path == "" {
		return domain.DefaultClassifier(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open category table: %w", err)
	}
	defer f.Close()

	c, err := domain.LoadClassifier(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// offlineLoad reads and normalizes a CSV without geocoding or publishing.
// The raw rows are returned alongside their incidents, index for index.
func offlineLoad(ctx context.Context, path string, resolverCfg domain.ResolverConfig, classifier *domain.Classifier, logger *slog.Logger) ([]domain.RawRecord, []domain.Incident, error) {
	rows, err := csvsource.New(path).ReadRows(ctx)
	if err != nil {
		return nil, nil, err
	}
	t := pipeline.NewTransformer(resolverCfg, nil, classifier, logger)
	incidents, err := t.Transform(ctx, rows)
	if err != nil {
		return nil, nil, err
	}
	return rows, incidents, nil
}
