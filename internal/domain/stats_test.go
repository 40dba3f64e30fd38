package domain

import (
	"testing"
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsFixture() []Incident {
	a := incidentAt("a", "2024-01-01T08:00:00Z")
	a.Location = "Warangal"

	b := incidentAt("b", "2024-01-02T13:00:00Z")
	b.Location = "Warangal"
	b.Latitude, b.Longitude = 17.9690, 79.5942

	c := incidentAt("c", "2024-01-03T19:00:00Z")
	c.NewsType, c.Category, c.Location = "Murder", "Violent Crime", "Hyderabad"
	c.GeoSource = GeoSourceSynthesized

	d := incidentAt("d", "not a date")
	d.NewsType, d.Category, d.Location = "Arson", CategoryOther, DefaultLocation
	d.GeoSource = GeoSourceSynthesized

	return []Incident{a, b, c, d}
}

func TestSummarize(t *testing.T) {
	s := Summarize(statsFixture(), 2, time.UTC)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.KnownLocations)
	require.NotNil(t, s.Earliest)
	require.NotNil(t, s.Latest)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), *s.Earliest)
	assert.Equal(t, time.Date(2024, 1, 3, 19, 0, 0, 0, time.UTC), *s.Latest)

	assert.Equal(t, []Count{{"Theft", 2}, {"Arson", 1}}, s.TopNewsTypes)
	assert.Equal(t, []Count{{"Property Crime", 2}, {CategoryOther, 1}, {"Violent Crime", 1}}, s.Categories)
	assert.Equal(t, []Count{{"Warangal", 2}, {"Hyderabad", 1}}, s.TopLocations)
	assert.Equal(t, []Count{
		{TimeOfDayMorning, 1},
		{TimeOfDayAfternoon, 1},
		{TimeOfDayEvening, 1},
		{TimeOfDayNight, 0},
		{TimeOfDayUnknown, 1},
	}, s.TimeOfDay)
}

func TestSummarize_Hotspots(t *testing.T) {
	s := Summarize(statsFixture(), 0, time.UTC)

	require.Len(t, s.Hotspots, 1)
	h := s.Hotspots[0]
	assert.Equal(t, geohash.EncodeWithPrecision(17.9689, 79.5941, hotspotPrecision), h.Geohash)
	assert.Equal(t, 2, h.Count)
	assert.InDelta(t, 17.96895, h.Lat, 1e-9)
	assert.InDelta(t, 79.59415, h.Lng, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 5, nil)

	assert.Zero(t, s.Total)
	assert.Nil(t, s.Earliest)
	assert.Nil(t, s.Latest)
	assert.NotNil(t, s.TopNewsTypes)
	assert.Empty(t, s.TopNewsTypes)
	assert.Empty(t, s.Hotspots)
	assert.Len(t, s.TimeOfDay, 4)
}

func TestTimeOfDayBucket(t *testing.T) {
	tests := []struct {
		hour     int
		expected string
	}{
		{0, TimeOfDayNight},
		{4, TimeOfDayNight},
		{5, TimeOfDayMorning},
		{11, TimeOfDayMorning},
		{12, TimeOfDayAfternoon},
		{16, TimeOfDayAfternoon},
		{17, TimeOfDayEvening},
		{20, TimeOfDayEvening},
		{21, TimeOfDayNight},
		{23, TimeOfDayNight},
	}

	for _, tt := range tests {
		got := timeOfDayBucket(time.Date(2024, 1, 1, tt.hour, 30, 0, 0, time.UTC), time.UTC)
		assert.Equal(t, tt.expected, got, "hour %d", tt.hour)
	}
	assert.Equal(t, TimeOfDayUnknown, timeOfDayBucket(time.Time{}, time.UTC))
}

func TestTimeOfDayBucket_UsesLocalWallClock(t *testing.T) {
	tests := []struct {
		name     string
		ts       string
		expected string
	}{
		{"ist offset", "2024-01-01T10:00:00+05:30", TimeOfDayMorning},
		{"utc morning in ist", "2024-01-01T04:30:00Z", TimeOfDayMorning},
		{"utc night is ist morning", "2024-01-01T00:30:00Z", TimeOfDayMorning},
		{"utc afternoon is ist evening", "2024-01-01T12:00:00Z", TimeOfDayEvening},
		{"utc evening is ist night", "2024-01-01T16:00:00Z", TimeOfDayNight},
		{"late ist night", "2024-01-01T23:45:00+05:30", TimeOfDayNight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := time.Parse(time.RFC3339, tt.ts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, timeOfDayBucket(ts, DefaultStatsLocation))
		})
	}
}

func TestSummarize_DefaultsToIST(t *testing.T) {
	inc := incidentAt("a", "2024-01-01T10:00:00+05:30")

	s := Summarize([]Incident{inc}, 0, nil)

	assert.Equal(t, []Count{
		{TimeOfDayMorning, 1},
		{TimeOfDayAfternoon, 0},
		{TimeOfDayEvening, 0},
		{TimeOfDayNight, 0},
	}, s.TimeOfDay)
}

func TestLocationKey_FallsBackToCoordinates(t *testing.T) {
	inc := Incident{Latitude: 17.96891, Longitude: 79.59412}

	assert.Equal(t, "17.9689,79.5941", locationKey(&inc))
}
