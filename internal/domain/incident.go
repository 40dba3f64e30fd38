package domain

import "time"

// Source CSV column names, as they appear in the header row.
const (
	ColSourceFile         = "Source_file"
	ColHeadline           = "Common_Features_headline"
	ColSummary            = "Common_Features_summary"
	ColPublishedDate      = "Published_Date"
	ColIncidentLocation   = "Common_Features_incident_location"
	ColNewsType           = "News_Type"
	ColInvolvedRole       = "Involved_persons_role"
	ColLocationPlace      = "Common_Features_incident_location_place"
	ColKeywords           = "Common_Features_keywords"
	ColImpact             = "Common_Features_impact_and_significance"
	ColSource             = "Common_Features_source"
	ColDateTime           = "Common_Features_date_time"
	ColTone               = "Common_Features_tone_of_news"
	ColQuotes             = "Common_Features_quotes_and_statements"
	ColPublicReaction     = "Common_Features_public_reaction"
	ColPastEvents         = "Common_Features_references_to_past_events"
	ColFutureImplications = "Common_Features_conclusion_and_future_implications"
	ColMainSubject        = "Common_Features_main_subject"
	ColDayOfWeek          = "Common_Features_day_of_week"
	ColImagesAndMedia     = "Common_Features_images_and_media"
)

// Placeholder values for required text fields missing from the source.
const (
	DefaultTitle       = "No Title"
	DefaultDescription = "No Description"
	DefaultNewsType    = "Unknown"
	DefaultRole        = "Unknown"
	DefaultLocation    = "Unknown Location"
)

// GeoSource values record how an incident's coordinates were obtained.
const (
	GeoSourceOriginal    = "source"
	GeoSourceGeocoded    = "geocoded"
	GeoSourceSynthesized = "synthesized"
)

// RawRecord is one CSV row keyed by header column name. Columns absent from
// a ragged row are absent from the map.
type RawRecord map[string]string

// Incident is the normalized representation of one source row.
type Incident struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	PublishedDate       string   `json:"publishedDate"`
	Latitude            float64  `json:"latitude"`
	Longitude           float64  `json:"longitude"`
	GeoSource           string   `json:"geoSource"`
	NewsType            string   `json:"newsType"`
	InvolvedPersonsRole string   `json:"involvedPersonsRole"`
	Location            string   `json:"location"`
	Keywords            []string `json:"keywords"`
	Impact              string   `json:"impact"`
	Source              string   `json:"source"`
	DateTime            string   `json:"date_time"`
	Tone                string   `json:"tone"`
	Quotes              string   `json:"quotes"`
	Category            string   `json:"category,omitempty"`
	PublicReaction      string   `json:"publicReaction"`
	PastEvents          string   `json:"pastEvents"`
	FutureImplications  string   `json:"futureImplications"`
	MainSubject         string   `json:"mainSubject"`
	DayOfWeek           string   `json:"dayOfWeek"`
	ImagesAndMedia      string   `json:"imagesAndMedia"`

	// PublishedAt is PublishedDate parsed once at load; zero when unparseable.
	PublishedAt time.Time `json:"-"`
}

// HasKnownLocation reports whether the coordinates came from data rather
// than the regional fallback.
func (i Incident) HasKnownLocation() bool {
	return i.GeoSource == GeoSourceOriginal || i.GeoSource == GeoSourceGeocoded
}

// Filter narrows a collection of incidents. Zero-valued fields do not
// constrain the result.
type Filter struct {
	Start *time.Time
	// End is extended to the last instant of its calendar day.
	End       *time.Time
	CrimeType string // exact, case-insensitive match on NewsType
	Category  string // exact, case-insensitive match on Category
	Role      string // exact, case-insensitive match on InvolvedPersonsRole
	Near      *Radius
}

// IsZero reports whether the filter has no constraints.
func (f Filter) IsZero() bool {
	return f.Start == nil && f.End == nil && f.CrimeType == "" && f.Category == "" && f.Role == "" && f.Near == nil
}

// Radius selects incidents within RadiusKm great-circle kilometres of a point.
type Radius struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}
