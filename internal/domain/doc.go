// Package domain models news-derived incident records.
//
// # Data Source
//
// Incidents originate from a merged CSV export of newspaper article
// extractions. Each row describes one reported event with a headline, a
// summary, a publication date, a news type label and a set of
// "Common_Features_*" free-text columns produced by the upstream extractor.
// The file is large and only loosely structured: columns may be missing,
// rows may be ragged and many values are empty.
//
// # Source Conventions
//
// Location format:
//
//	Common_Features_incident_location holds "<lat>,<lng>", sometimes wrapped
//	in double quotes, e.g. "\"17.385,78.4867\"". It is frequently empty or
//	holds prose instead of numbers. Some values carry unit or hemisphere
//	suffixes ("17.5°N, 78.3°E"); only the leading number of each half is
//	read. Range is not enforced on load; the validate command reports pairs
//	outside WGS-84 bounds.
//	Common_Features_incident_location_place holds the human-readable place,
//	also sometimes quoted.
//
// Zero coordinates:
//
//	A latitude or longitude of exactly 0 is treated as "not present". The
//	dataset covers a single region far from the equator and prime meridian,
//	so a zero is always an extraction artifact.
//
// Keywords:
//
//	Common_Features_keywords is a ";"-separated list with irregular spacing
//	and trailing separators, e.g. "theft; assault ;  ".
//
// Dates:
//
//	Published_Date is usually ISO-8601 but older rows use other layouts. The
//	raw string is kept verbatim; [ParseTimestamp] recognizes the layouts seen
//	in the data and rows that match none are excluded from date filters.
//
// # Coordinate Repair
//
// Rows without usable coordinates are kept, not dropped. Coordinates are
// resolved in order: parsed source value, forward geocoded place name (when a
// [Geocoder] is configured), then a point jittered around a regional
// centroid. [Incident.GeoSource] records which step produced the value so
// map consumers can tell a known position from a synthesized one.
//
// # Categories
//
// News types are free-form. [Classifier] maps them onto ten fixed buckets
// (Violent Crime, Property Crime, Drug-Related, Cyber Crime, Financial
// Crime, Political, Accident/Hazard, Community Issue, Cultural/Social,
// Other) using a static lookup table.
package domain
