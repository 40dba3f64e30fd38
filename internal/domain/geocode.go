package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding replaces synthesized coordinates with a geocoded
// position of the incident's place, and names the place of incidents that
// have real coordinates but no location text. If geocoder is nil or a lookup
// fails, the incident is returned unchanged (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, inc Incident, geocoder Geocoder, logger *slog.Logger) Incident {
	if geocoder == nil {
		return inc
	}

	hasPlace := inc.Location != "" && inc.Location != DefaultLocation

	// Forward geocode: place name → coordinates (when source coords are missing).
	if inc.GeoSource == GeoSourceSynthesized && hasPlace {
		result, err := geocoder.ForwardGeocode(ctx, inc.Location)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"incident_id", inc.ID,
				"location", inc.Location,
				"error", err,
			)
			return inc
		}
		if result.Lat != 0 && result.Lon != 0 {
			inc.Latitude = result.Lat
			inc.Longitude = result.Lon
			inc.GeoSource = GeoSourceGeocoded
		}
		return inc
	}

	// Reverse geocode: coordinates → place name (when the place is unknown).
	if inc.GeoSource == GeoSourceOriginal && !hasPlace {
		result, err := geocoder.ReverseGeocode(ctx, inc.Latitude, inc.Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"incident_id", inc.ID,
				"lat", inc.Latitude,
				"lon", inc.Longitude,
				"error", err,
			)
			return inc
		}
		if result.FormattedAddress != "" {
			inc.Location = result.FormattedAddress
		}
	}
	return inc
}
