package store

import (
	"errors"
	"time"
)

var (
	// ErrLoadFailed matches every *LoadError via errors.Is.
	ErrLoadFailed = errors.New("incident data unavailable")
	// ErrNotFound is returned by Get for an unknown incident ID.
	ErrNotFound = errors.New("incident not found")
)

// LoadError reports that no snapshot could be served because the source
// failed to load and there was no earlier snapshot to fall back on.
type LoadError struct {
	Cause error
	At    time.Time
}

func (e *LoadError) Error() string {
	return "load incidents: " + e.Cause.Error()
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrLoadFailed.
func (e *LoadError) Is(target error) bool { return target == ErrLoadFailed }
