package domain

import (
	"testing"
	"time"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incidentAt(id, published string) Incident {
	at, _ := ParseTimestamp(published)
	return Incident{
		ID:                  id,
		PublishedDate:       published,
		PublishedAt:         at,
		NewsType:            "Theft",
		InvolvedPersonsRole: "Accused",
		Category:            "Property Crime",
		Latitude:            17.9689,
		Longitude:           79.5941,
		GeoSource:           GeoSourceOriginal,
		Keywords:            []string{},
	}
}

func ids(incidents []Incident) []string {
	out := make([]string, len(incidents))
	for i, inc := range incidents {
		out[i] = inc.ID
	}
	return out
}

func ptr(t time.Time) *time.Time { return &t }

func TestApply_ZeroFilterReturnsEverything(t *testing.T) {
	in := []Incident{incidentAt("a", "2024-01-01"), incidentAt("b", "garbage")}

	got := Apply(in, Filter{}, discardLogger())

	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestApply_DateRangeIsInclusive(t *testing.T) {
	in := []Incident{
		incidentAt("before", "2023-12-31T23:59:59Z"),
		incidentAt("start", "2024-01-01T00:00:00Z"),
		incidentAt("middle", "2024-01-15T12:00:00Z"),
		incidentAt("end", "2024-01-31T23:59:59Z"),
		incidentAt("after", "2024-02-01T00:00:00Z"),
	}
	f := Filter{
		Start: ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		End:   ptr(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
	}

	got := Apply(in, f, discardLogger())

	assert.Equal(t, []string{"start", "middle", "end"}, ids(got))
}

func TestApply_DateFilterExcludesUnparseableDates(t *testing.T) {
	in := []Incident{
		incidentAt("ok", "2024-01-10"),
		incidentAt("bad", "yesterday-ish"),
	}

	got := Apply(in, Filter{Start: ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}, discardLogger())

	assert.Equal(t, []string{"ok"}, ids(got))
}

func TestApply_OpenEndedRanges(t *testing.T) {
	in := []Incident{
		incidentAt("jan", "2024-01-10"),
		incidentAt("mar", "2024-03-10"),
	}
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"mar"}, ids(Apply(in, Filter{Start: &feb}, discardLogger())))
	assert.Equal(t, []string{"jan"}, ids(Apply(in, Filter{End: &feb}, discardLogger())))
}

func TestApply_TextFiltersAreCaseInsensitive(t *testing.T) {
	a := incidentAt("a", "2024-01-01")
	b := incidentAt("b", "2024-01-01")
	b.NewsType = "theft"
	c := incidentAt("c", "2024-01-01")
	c.NewsType = "Murder"

	got := Apply([]Incident{a, b, c}, Filter{CrimeType: "THEFT"}, discardLogger())

	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestApply_CrimeTypeIsExactNotSubstring(t *testing.T) {
	a := incidentAt("a", "2024-01-01")
	a.NewsType = "Vehicle Theft"

	got := Apply([]Incident{a}, Filter{CrimeType: "theft"}, discardLogger())

	assert.Empty(t, got)
}

func TestApply_ConstraintsCombineWithAnd(t *testing.T) {
	match := incidentAt("match", "2024-01-05")
	wrongRole := incidentAt("wrong-role", "2024-01-05")
	wrongRole.InvolvedPersonsRole = "Victim"
	wrongDate := incidentAt("wrong-date", "2024-03-05")
	wrongType := incidentAt("wrong-type", "2024-01-05")
	wrongType.NewsType = "Arson"
	wrongCategory := incidentAt("wrong-category", "2024-01-05")
	wrongCategory.Category = "Other"

	f := Filter{
		Start:     ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		End:       ptr(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
		CrimeType: "theft",
		Category:  "property crime",
		Role:      "accused",
	}

	got := Apply([]Incident{match, wrongRole, wrongDate, wrongType, wrongCategory}, f, discardLogger())

	assert.Equal(t, []string{"match"}, ids(got))
}

func TestApply_PreservesOrder(t *testing.T) {
	in := []Incident{
		incidentAt("3", "2024-01-03"),
		incidentAt("1", "2024-01-01"),
		incidentAt("2", "2024-01-02"),
	}

	got := Apply(in, Filter{CrimeType: "theft"}, discardLogger())

	assert.Equal(t, []string{"3", "1", "2"}, ids(got))
}

func TestApply_ResultDoesNotAliasInput(t *testing.T) {
	in := []Incident{incidentAt("a", "2024-01-01"), incidentAt("b", "2024-01-02")}

	got := Apply(in, Filter{}, discardLogger())
	got[0].ID = "changed"
	extended := append(got[:1], incidentAt("x", "2024-01-01"))

	assert.Len(t, extended, 2)
	assert.Equal(t, []string{"a", "b"}, ids(in))
}

func TestApply_RadiusUsesKnownLocationsOnly(t *testing.T) {
	warangal := incidentAt("warangal", "2024-01-01")
	hyderabad := incidentAt("hyderabad", "2024-01-01")
	hyderabad.Latitude, hyderabad.Longitude = 17.3850, 78.4867
	synthetic := incidentAt("synthetic", "2024-01-01")
	synthetic.GeoSource = GeoSourceSynthesized
	geocoded := incidentAt("geocoded", "2024-01-01")
	geocoded.GeoSource = GeoSourceGeocoded

	f := Filter{Near: &Radius{Lat: 17.9784, Lng: 79.6000, RadiusKm: 10}}

	got := Apply([]Incident{warangal, hyderabad, synthetic, geocoded}, f, discardLogger())

	assert.Equal(t, []string{"warangal", "geocoded"}, ids(got))
}

func TestEndOfDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	got := EndOfDay(time.Date(2024, 1, 31, 8, 0, 0, 0, ist))

	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, ist), got)
}

func TestDistanceKm(t *testing.T) {
	hyderabad := s2.LatLngFromDegrees(17.3850, 78.4867)

	d := DistanceKm(hyderabad, 17.9689, 79.5941)

	// Hyderabad to Warangal is about 135km as the crow flies.
	require.InDelta(t, 135, d, 5)
	assert.Zero(t, DistanceKm(hyderabad, 17.3850, 78.4867))
}
