package domain

import (
	"strconv"
	"strings"
	"time"
)

// isoMillis is the layout used for load-time default publication dates.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// fieldRule declares how one Incident text field is filled from a row.
// Rules are applied in order; value is trimmed before clean runs.
type fieldRule struct {
	column string
	set    func(*Incident, string)
	// clean transforms a present value. A value that cleans to "" is absent.
	clean func(string) string
	// fallback derives the value when the column is absent or empty.
	fallback func(index int) string
}

func literal(s string) func(int) string {
	return func(int) string { return s }
}

func positionalID(index int) string {
	return "incident-" + strconv.Itoa(index)
}

func loadTime(int) string {
	return clock.Now().UTC().Format(isoMillis)
}

func stripQuotes(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// fieldRules is the complete defaulting table for text fields. Coordinates
// and keywords are derived separately in Normalize.
var fieldRules = []fieldRule{
	{column: ColSourceFile, set: func(i *Incident, v string) { i.ID = v }, fallback: positionalID},
	{column: ColHeadline, set: func(i *Incident, v string) { i.Title = v }, fallback: literal(DefaultTitle)},
	{column: ColSummary, set: func(i *Incident, v string) { i.Description = v }, fallback: literal(DefaultDescription)},
	{column: ColPublishedDate, set: func(i *Incident, v string) { i.PublishedDate = v }, fallback: loadTime},
	{column: ColNewsType, set: func(i *Incident, v string) { i.NewsType = v }, fallback: literal(DefaultNewsType)},
	{column: ColInvolvedRole, set: func(i *Incident, v string) { i.InvolvedPersonsRole = v }, fallback: literal(DefaultRole)},
	{column: ColLocationPlace, set: func(i *Incident, v string) { i.Location = v }, clean: stripQuotes, fallback: literal(DefaultLocation)},
	{column: ColImpact, set: func(i *Incident, v string) { i.Impact = v }},
	{column: ColSource, set: func(i *Incident, v string) { i.Source = v }},
	{column: ColDateTime, set: func(i *Incident, v string) { i.DateTime = v }},
	{column: ColTone, set: func(i *Incident, v string) { i.Tone = v }},
	{column: ColQuotes, set: func(i *Incident, v string) { i.Quotes = v }},
	{column: ColPublicReaction, set: func(i *Incident, v string) { i.PublicReaction = v }},
	{column: ColPastEvents, set: func(i *Incident, v string) { i.PastEvents = v }},
	{column: ColFutureImplications, set: func(i *Incident, v string) { i.FutureImplications = v }},
	{column: ColMainSubject, set: func(i *Incident, v string) { i.MainSubject = v }},
	{column: ColDayOfWeek, set: func(i *Incident, v string) { i.DayOfWeek = v }},
	{column: ColImagesAndMedia, set: func(i *Incident, v string) { i.ImagesAndMedia = v }},
}

// Normalize converts one raw row into an Incident. It never fails: every
// missing or malformed field is defaulted on its own. index is the 0-based
// position of the row in the source and backs the positional ID.
func Normalize(rec RawRecord, index int, resolver *Resolver) Incident {
	var inc Incident
	for _, rule := range fieldRules {
		rule.set(&inc, fieldValue(rec, rule, index))
	}

	inc.Keywords = parseKeywords(rec[ColKeywords])
	inc.PublishedAt, _ = ParseTimestamp(inc.PublishedDate)

	lat, lng, fromSource := resolver.Resolve(rec[ColIncidentLocation])
	inc.Latitude, inc.Longitude = lat, lng
	if fromSource {
		inc.GeoSource = GeoSourceOriginal
	} else {
		inc.GeoSource = GeoSourceSynthesized
	}
	return inc
}

func fieldValue(rec RawRecord, rule fieldRule, index int) string {
	v := strings.TrimSpace(rec[rule.column])
	if v != "" && rule.clean != nil {
		v = rule.clean(v)
	}
	if v != "" {
		return v
	}
	if rule.fallback == nil {
		return ""
	}
	return rule.fallback(index)
}

// parseKeywords splits a ";"-separated list, dropping blank entries.
// The result is never nil.
func parseKeywords(raw string) []string {
	keywords := make([]string, 0, strings.Count(raw, ";")+1)
	for _, k := range strings.Split(raw, ";") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// timestampLayouts are the publication date formats seen in the source data,
// most common first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"01/02/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// ParseTimestamp parses a publication date. Layouts without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
