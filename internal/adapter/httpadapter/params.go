package httpadapter

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/incident-data-service/internal/domain"
)

// parseFilter builds a filter from query parameters. Absent or blank
// parameters leave their constraint unset.
func parseFilter(q url.Values) (domain.Filter, error) {
	var f domain.Filter

	start, end := strings.TrimSpace(q.Get("startDate")), strings.TrimSpace(q.Get("endDate"))
	if (start == "") != (end == "") {
		return f, errors.New("startDate and endDate must be given together")
	}
	if start != "" {
		s, ok := domain.ParseTimestamp(start)
		if !ok {
			return f, fmt.Errorf("invalid startDate %q", start)
		}
		e, ok := domain.ParseTimestamp(end)
		if !ok {
			return f, fmt.Errorf("invalid endDate %q", end)
		}
		if domain.EndOfDay(e).Before(s) {
			return f, errors.New("endDate is before startDate")
		}
		f.Start, f.End = &s, &e
	}

	f.CrimeType = strings.TrimSpace(q.Get("crimeType"))
	f.Category = strings.TrimSpace(q.Get("category"))
	f.Role = strings.TrimSpace(q.Get("role"))

	near, err := parseRadius(q)
	if err != nil {
		return f, err
	}
	f.Near = near
	return f, nil
}

func parseRadius(q url.Values) (*domain.Radius, error) {
	raw := [3]string{
		strings.TrimSpace(q.Get("lat")),
		strings.TrimSpace(q.Get("lng")),
		strings.TrimSpace(q.Get("radiusKm")),
	}
	if raw == [3]string{} {
		return nil, nil
	}
	for _, v := range raw {
		if v == "" {
			return nil, errors.New("lat, lng and radiusKm must be given together")
		}
	}

	var vals [3]float64
	for i, name := range []string{"lat", "lng", "radiusKm"} {
		v, err := strconv.ParseFloat(raw[i], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid %s %q", name, raw[i])
		}
		vals[i] = v
	}

	r := &domain.Radius{Lat: vals[0], Lng: vals[1], RadiusKm: vals[2]}
	switch {
	case math.Abs(r.Lat) > 90:
		return nil, errors.New("lat must be within [-90, 90]")
	case math.Abs(r.Lng) > 180:
		return nil, errors.New("lng must be within [-180, 180]")
	case r.RadiusKm <= 0:
		return nil, errors.New("radiusKm must be positive")
	}
	return r, nil
}

func parseTopN(raw string) (int, error) {
	if raw == "" {
		return defaultTopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxTopN {
		return 0, fmt.Errorf("top must be an integer between 1 and %d", maxTopN)
	}
	return n, nil
}

// dateOnly formats a filter bound for logs.
func dateOnly(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
