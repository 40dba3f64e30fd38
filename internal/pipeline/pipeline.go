package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/observability"
)

// RowSource reads every raw row of the incident source.
type RowSource interface {
	ReadRows(ctx context.Context) ([]domain.RawRecord, error)
}

// Transformer converts raw rows into incidents, one per row, in row order.
type Transformer interface {
	Transform(ctx context.Context, rows []domain.RawRecord) ([]domain.Incident, error)
}

// BatchPublisher writes a freshly loaded snapshot downstream.
type BatchPublisher interface {
	Publish(ctx context.Context, snapshotID string, incidents []domain.Incident) error
}

// Pipeline runs one extract-transform-publish cycle per Load call.
// It implements store.Loader.
type Pipeline struct {
	source      RowSource
	transformer Transformer
	publisher   BatchPublisher
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline. publisher may be nil to skip publishing.
func New(s RowSource, t Transformer, p BatchPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:      s,
		transformer: t,
		publisher:   p,
		logger:      logger,
		metrics:     metrics,
	}
}

// Load reads the whole source and returns its incidents. Row-level defects
// never fail a load; only an unreadable source or a cancelled context does.
// A publish failure is logged and counted but does not fail the load.
func (p *Pipeline) Load(ctx context.Context, snapshotID string) ([]domain.Incident, error) {
	start := time.Now()

	rows, err := p.source.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract rows: %w", err)
	}

	incidents, err := p.transformer.Transform(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("transform rows: %w", err)
	}

	counts := p.record(incidents)
	p.logger.Info("incidents loaded",
		"snapshot_id", snapshotID,
		"rows", len(rows),
		"source_coordinates", counts[domain.GeoSourceOriginal],
		"geocoded_coordinates", counts[domain.GeoSourceGeocoded],
		"synthesized_coordinates", counts[domain.GeoSourceSynthesized],
		"duration", time.Since(start),
	)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, snapshotID, incidents); err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Error("publish snapshot failed", "snapshot_id", snapshotID, "error", err)
		}
	}
	return incidents, nil
}

// record counts coordinate sources into metrics and returns the tally.
func (p *Pipeline) record(incidents []domain.Incident) map[string]int {
	counts := make(map[string]int, 3)
	for i := range incidents {
		counts[incidents[i].GeoSource]++
	}
	for src, n := range counts {
		p.metrics.CoordinatesBySource.WithLabelValues(src).Add(float64(n))
	}
	p.metrics.RowsNormalized.Add(float64(len(incidents)))
	return counts
}
