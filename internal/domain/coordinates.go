package domain

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// Default fallback parameters: the regional centroid of the dataset and the
// half-width of the square synthesized coordinates are drawn from.
const (
	DefaultCentroidLat   = 18.1124
	DefaultCentroidLng   = 79.0193
	DefaultJitterDegrees = 0.75
)

// ResolverConfig parameterizes coordinate synthesis.
type ResolverConfig struct {
	CentroidLat   float64
	CentroidLng   float64
	JitterDegrees float64
	// Seed makes synthesized coordinates reproducible. Zero picks a random seed.
	Seed uint64
}

// DefaultResolverConfig returns the production centroid and jitter with a random seed.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		CentroidLat:   DefaultCentroidLat,
		CentroidLng:   DefaultCentroidLng,
		JitterDegrees: DefaultJitterDegrees,
	}
}

// Resolver turns the raw incident location field into a usable coordinate.
// It is safe for concurrent use.
type Resolver struct {
	cfg ResolverConfig
	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver creates a Resolver. The config is expected to be validated by
// the caller; see config.Load.
func NewResolver(cfg ResolverConfig) *Resolver {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Resolver{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Resolve returns the parsed source coordinate when it is usable, otherwise a
// synthesized one. The bool reports whether the source value was used.
func (r *Resolver) Resolve(raw string) (float64, float64, bool) {
	if lat, lng, ok := ParseCoordinates(raw); ok && lat != 0 && lng != 0 {
		return lat, lng, true
	}
	lat, lng := r.Synthesize()
	return lat, lng, false
}

// Synthesize draws a point uniformly from the square of half-width
// JitterDegrees around the centroid.
func (r *Resolver) Synthesize() (lat, lng float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j := r.cfg.JitterDegrees
	lat = r.cfg.CentroidLat + (r.rng.Float64()*2*j - j)
	lng = r.cfg.CentroidLng + (r.rng.Float64()*2*j - j)
	return lat, lng
}

// ParseCoordinates parses a "lat,lng" pair. Double quotes anywhere in the
// input are ignored. Each half is read up to the end of its leading number,
// so unit suffixes such as "17.5N" or "78.3°" are tolerated. The pair is
// rejected when either half has no leading number or is not finite. Range is
// not checked here; see InRange.
func ParseCoordinates(raw string) (lat, lng float64, ok bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if s == "" {
		return 0, 0, false
	}

	latStr, lngStr, found := strings.Cut(s, ",")
	if !found || strings.Contains(lngStr, ",") {
		return 0, 0, false
	}

	lat, ok = leadingFloat(latStr)
	if !ok {
		return 0, 0, false
	}
	lng, ok = leadingFloat(lngStr)
	if !ok {
		return 0, 0, false
	}
	return lat, lng, true
}

// InRange reports whether (lat, lng) lies inside WGS-84 bounds.
func InRange(lat, lng float64) bool {
	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}

// leadingFloat parses the longest decimal number at the start of the trimmed
// input: an optional sign, digits with at most one '.', and an exponent only
// when it has digits. Anything after the number is ignored.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}

	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
