package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// hotspotPrecision is the geohash length used to bucket incidents into
// hotspots; five characters is roughly a 5km x 5km cell.
const hotspotPrecision = 5

// DefaultStatsLocation is India Standard Time, the dataset's region. Day parts
// are computed on the wall clock of this zone unless another is given.
var DefaultStatsLocation = time.FixedZone("IST", 5*60*60+30*60)

// Time-of-day buckets, keyed on the local hour of publication.
const (
	TimeOfDayMorning   = "Morning (5AM-12PM)"
	TimeOfDayAfternoon = "Afternoon (12PM-5PM)"
	TimeOfDayEvening   = "Evening (5PM-9PM)"
	TimeOfDayNight     = "Night (9PM-5AM)"
	TimeOfDayUnknown   = "Unknown"
)

// Count is one labelled tally.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Hotspot is a geohash cell with its incident count and mean position.
type Hotspot struct {
	Geohash string  `json:"geohash"`
	Count   int     `json:"count"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Summary aggregates a set of incidents for dashboards.
type Summary struct {
	Total          int        `json:"total"`
	KnownLocations int        `json:"knownLocations"`
	Earliest       *time.Time `json:"earliest,omitempty"`
	Latest         *time.Time `json:"latest,omitempty"`
	TopNewsTypes   []Count    `json:"topNewsTypes"`
	Categories     []Count    `json:"categories"`
	TopLocations   []Count    `json:"topLocations"`
	TimeOfDay      []Count    `json:"timeOfDay"`
	Hotspots       []Hotspot  `json:"hotspots"`
}

// Summarize tallies incidents. The ranked lists (news types, locations,
// hotspots) are cut to topN entries; topN <= 0 keeps them all. Time-of-day
// buckets use the wall clock in loc; nil means DefaultStatsLocation.
func Summarize(incidents []Incident, topN int, loc *time.Location) Summary {
	if loc == nil {
		loc = DefaultStatsLocation
	}
	s := Summary{Total: len(incidents)}

	newsTypes := make(map[string]int)
	categories := make(map[string]int)
	locations := make(map[string]int)
	timeOfDay := make(map[string]int)
	cells := make(map[string]*Hotspot)

	for i := range incidents {
		inc := &incidents[i]
		newsTypes[inc.NewsType]++
		if inc.Category != "" {
			categories[inc.Category]++
		}
		locations[locationKey(inc)]++
		timeOfDay[timeOfDayBucket(inc.PublishedAt, loc)]++

		if !inc.PublishedAt.IsZero() {
			if s.Earliest == nil || inc.PublishedAt.Before(*s.Earliest) {
				t := inc.PublishedAt
				s.Earliest = &t
			}
			if s.Latest == nil || inc.PublishedAt.After(*s.Latest) {
				t := inc.PublishedAt
				s.Latest = &t
			}
		}

		if !inc.HasKnownLocation() {
			continue
		}
		s.KnownLocations++
		hash := geohash.EncodeWithPrecision(inc.Latitude, inc.Longitude, hotspotPrecision)
		h, ok := cells[hash]
		if !ok {
			h = &Hotspot{Geohash: hash}
			cells[hash] = h
		}
		h.Count++
		// Running mean keeps the center inside the cell.
		h.Lat += (inc.Latitude - h.Lat) / float64(h.Count)
		h.Lng += (inc.Longitude - h.Lng) / float64(h.Count)
	}

	s.TopNewsTypes = rank(newsTypes, topN)
	s.Categories = rank(categories, 0)
	s.TopLocations = rank(locations, topN)
	s.TimeOfDay = timeOfDayCounts(timeOfDay)
	s.Hotspots = rankHotspots(cells, topN)
	return s
}

func locationKey(inc *Incident) string {
	if inc.Location != "" {
		return inc.Location
	}
	return fmt.Sprintf("%.4f,%.4f", inc.Latitude, inc.Longitude)
}

func timeOfDayBucket(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return TimeOfDayUnknown
	}
	switch h := t.In(loc).Hour(); {
	case h >= 5 && h < 12:
		return TimeOfDayMorning
	case h >= 12 && h < 17:
		return TimeOfDayAfternoon
	case h >= 17 && h < 21:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}

// timeOfDayCounts lists the four day parts in clock order, plus Unknown when
// any incident had no usable date.
func timeOfDayCounts(m map[string]int) []Count {
	out := []Count{
		{Key: TimeOfDayMorning, Count: m[TimeOfDayMorning]},
		{Key: TimeOfDayAfternoon, Count: m[TimeOfDayAfternoon]},
		{Key: TimeOfDayEvening, Count: m[TimeOfDayEvening]},
		{Key: TimeOfDayNight, Count: m[TimeOfDayNight]},
	}
	if n := m[TimeOfDayUnknown]; n > 0 {
		out = append(out, Count{Key: TimeOfDayUnknown, Count: n})
	}
	return out
}

// rank sorts tallies by count descending, ties by key, and keeps the first n.
func rank(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func rankHotspots(cells map[string]*Hotspot, n int) []Hotspot {
	out := make([]Hotspot, 0, len(cells))
	for _, h := range cells {
		out = append(out, *h)
	}
	slices.SortFunc(out, func(a, b Hotspot) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Geohash, b.Geohash)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
