package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/couchcryptid/incident-data-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// geocodeConcurrency bounds in-flight geocoding lookups per load.
const geocodeConcurrency = 8

// IncidentTransformer implements Transformer: normalize and resolve
// coordinates, then optionally geocode, then classify.
type IncidentTransformer struct {
	resolverCfg domain.ResolverConfig
	geocoder    domain.Geocoder
	classifier  *domain.Classifier
	logger      *slog.Logger
}

// NewTransformer creates an IncidentTransformer. Pass a nil geocoder to
// disable geocoding enrichment. A zero resolverCfg.Seed is replaced by a
// random seed here, once, so synthesized coordinates stay put across reloads
// for the life of the transformer.
func NewTransformer(resolverCfg domain.ResolverConfig, geocoder domain.Geocoder, classifier *domain.Classifier, logger *slog.Logger) *IncidentTransformer {
	for resolverCfg.Seed == 0 {
		resolverCfg.Seed = rand.Uint64()
	}
	return &IncidentTransformer{
		resolverCfg: resolverCfg,
		geocoder:    geocoder,
		classifier:  classifier,
		logger:      logger,
	}
}

// Transform returns exactly one incident per row. Every call starts a fresh
// resolver from the same seed and normalizes in row order, so a row that
// needs a synthesized coordinate gets the same one on every load. Geocoding
// runs concurrently afterwards and only fails on cancellation.
func (t *IncidentTransformer) Transform(ctx context.Context, rows []domain.RawRecord) ([]domain.Incident, error) {
	resolver := domain.NewResolver(t.resolverCfg)
	incidents := make([]domain.Incident, len(rows))
	for i, rec := range rows {
		incidents[i] = domain.Normalize(rec, i, resolver)
	}

	if t.geocoder != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(geocodeConcurrency)
		for i := range incidents {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				incidents[i] = domain.EnrichWithGeocoding(gctx, incidents[i], t.geocoder, t.logger)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for i := range incidents {
		incidents[i].Category = t.classifier.Classify(incidents[i].NewsType)
	}
	return incidents, nil
}
