package domain

import (
	"log/slog"
	"time"

	"github.com/golang/geo/s2"
)

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// Apply returns the incidents matching every constraint in f, in input
// order. The result never shares a backing array with incidents, so callers
// may reslice or append to it freely; the Incident values themselves are
// shallow copies and must be treated as read-only.
func Apply(incidents []Incident, f Filter, logger *slog.Logger) []Incident {
	m := newMatcher(f)
	out := make([]Incident, 0, len(incidents))
	for i := range incidents {
		inc := &incidents[i]
		if m.needsDate && inc.PublishedAt.IsZero() {
			logger.Debug("excluding incident with invalid published date",
				"incident_id", inc.ID,
				"published_date", inc.PublishedDate,
			)
			continue
		}
		if m.match(inc) {
			out = append(out, *inc)
		}
	}
	return out
}

// EndOfDay returns the last representable instant of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// matcher holds a filter with its comparison keys precomputed.
type matcher struct {
	start, end *time.Time
	needsDate  bool
	crimeType  string
	category   string
	role       string
	near       *Radius
	center     s2.LatLng
}

func newMatcher(f Filter) matcher {
	m := matcher{
		start:     f.Start,
		near:      f.Near,
		needsDate: f.Start != nil || f.End != nil,
	}
	if f.End != nil {
		end := EndOfDay(*f.End)
		m.end = &end
	}
	if f.CrimeType != "" {
		m.crimeType = foldKey(f.CrimeType)
	}
	if f.Category != "" {
		m.category = foldKey(f.Category)
	}
	if f.Role != "" {
		m.role = foldKey(f.Role)
	}
	if f.Near != nil {
		m.center = s2.LatLngFromDegrees(f.Near.Lat, f.Near.Lng)
	}
	return m
}

func (m matcher) match(inc *Incident) bool {
	if m.start != nil && inc.PublishedAt.Before(*m.start) {
		return false
	}
	if m.end != nil && inc.PublishedAt.After(*m.end) {
		return false
	}
	if m.crimeType != "" && foldKey(inc.NewsType) != m.crimeType {
		return false
	}
	if m.category != "" && foldKey(inc.Category) != m.category {
		return false
	}
	if m.role != "" && foldKey(inc.InvolvedPersonsRole) != m.role {
		return false
	}
	if m.near != nil {
		// Synthesized positions say nothing about where an incident happened.
		if !inc.HasKnownLocation() {
			return false
		}
		if DistanceKm(m.center, inc.Latitude, inc.Longitude) > m.near.RadiusKm {
			return false
		}
	}
	return true
}

// DistanceKm is the great-circle distance from center to (lat, lng).
func DistanceKm(center s2.LatLng, lat, lng float64) float64 {
	return center.Distance(s2.LatLngFromDegrees(lat, lng)).Radians() * earthRadiusKm
}
