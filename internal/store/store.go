// Package store caches the normalized incident collection in memory and
// reloads it from the source when it goes stale.
//
// A snapshot is immutable once published. Readers never see a partially
// loaded collection: a reload builds a complete snapshot and swaps it in with
// a single atomic store. Concurrent callers that find the snapshot missing or
// expired share one reload.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Defaults applied by New.
const (
	DefaultTTL           = time.Hour
	DefaultReloadTimeout = 30 * time.Second
	DefaultRetryInterval = 30 * time.Second
)

const reloadKey = "reload"

// Loader produces a complete incident collection. snapshotID identifies the
// load for logs and downstream consumers.
type Loader interface {
	Load(ctx context.Context, snapshotID string) ([]domain.Incident, error)
}

// Snapshot is one immutable, fully loaded incident collection.
type Snapshot struct {
	ID        string
	Incidents []domain.Incident
	LoadedAt  time.Time

	byID map[string]int
}

func newSnapshot(id string, incidents []domain.Incident, loadedAt time.Time) *Snapshot {
	byID := make(map[string]int, len(incidents))
	for i := range incidents {
		// First occurrence wins for duplicate source IDs.
		if _, dup := byID[incidents[i].ID]; !dup {
			byID[incidents[i].ID] = i
		}
	}
	return &Snapshot{ID: id, Incidents: incidents, LoadedAt: loadedAt, byID: byID}
}

// Lookup returns the incident with the given ID.
func (s *Snapshot) Lookup(id string) (domain.Incident, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Incident{}, false
	}
	return s.Incidents[i], true
}

// Result is a filtered view of a snapshot.
type Result struct {
	Incidents  []domain.Incident
	SnapshotID string
	LoadedAt   time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the time source used for freshness checks.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithTTL sets how long a snapshot is served before it is reloaded.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithReloadTimeout bounds a single reload.
func WithReloadTimeout(d time.Duration) Option {
	return func(s *Store) { s.reloadTimeout = d }
}

// WithRetryInterval sets how long a stale snapshot is served after a failed
// reload before another reload is attempted.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Store) { s.retryInterval = d }
}

// Store serves incident snapshots with lazy, request-driven reloads.
// It is safe for concurrent use.
type Store struct {
	loader        Loader
	clock         clockwork.Clock
	ttl           time.Duration
	reloadTimeout time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics

	current atomic.Pointer[Snapshot]
	group   singleflight.Group

	mu          sync.Mutex
	lastFailure time.Time
	lastErr     error
}

// New creates a Store. Nothing is loaded until the first request.
func New(loader Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{
		loader:        loader,
		clock:         clockwork.NewRealClock(),
		ttl:           DefaultTTL,
		reloadTimeout: DefaultReloadTimeout,
		retryInterval: DefaultRetryInterval,
		logger:        logger,
		metrics:       metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a fresh snapshot, reloading first when there is none or
// the current one has expired. After a failed reload, further reloads are
// suppressed for the retry interval: the earlier snapshot is served if one
// exists, otherwise the failure is returned again as a *LoadError.
//
// The reload itself is detached from ctx: if ctx ends first the caller gets
// ctx.Err() and the reload still completes for everyone else.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := s.current.Load()
	now := s.clock.Now()

	if snap != nil && s.fresh(snap, now) {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return snap, nil
	}
	if lastErr := s.recentFailure(now); lastErr != nil {
		if snap != nil {
			s.metrics.CacheLookups.WithLabelValues("stale").Inc()
			return snap, nil
		}
		s.metrics.CacheLookups.WithLabelValues("unavailable").Inc()
		return nil, lastErr
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	reloadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(reloadKey, func() (any, error) {
		return s.reload(reloadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(*Snapshot), nil
		}
		if last := s.current.Load(); last != nil {
			return last, nil
		}
		return nil, res.Err
	}
}

// Query returns the incidents of the current snapshot that match f.
func (s *Store) Query(ctx context.Context, f domain.Filter) (Result, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	incidents := domain.Apply(snap.Incidents, f, s.logger)
	s.metrics.FilterResultSize.Observe(float64(len(incidents)))
	return Result{Incidents: incidents, SnapshotID: snap.ID, LoadedAt: snap.LoadedAt}, nil
}

// Get returns one incident of the current snapshot by ID, along with the
// snapshot ID. A missing incident is ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.Incident, string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.Incident{}, "", err
	}
	inc, ok := snap.Lookup(id)
	if !ok {
		return domain.Incident{}, snap.ID, ErrNotFound
	}
	return inc, snap.ID, nil
}

// CheckReadiness reports ready once any snapshot has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.current.Load() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		return fmt.Errorf("no incident snapshot loaded: %w", s.lastErr)
	}
	return errors.New("no incident snapshot loaded yet")
}

func (s *Store) fresh(snap *Snapshot, now time.Time) bool {
	return now.Sub(snap.LoadedAt) < s.ttl
}

// recentFailure returns the last reload failure while it is younger than the
// retry interval, and nil otherwise.
func (s *Store) recentFailure(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFailure.IsZero() || now.Sub(s.lastFailure) >= s.retryInterval {
		return nil
	}
	return s.lastErr
}

// reload runs inside the singleflight group.
func (s *Store) reload(ctx context.Context) (*Snapshot, error) {
	// A flight that finished just before this one started may already have
	// refreshed the snapshot.
	if snap := s.current.Load(); snap != nil && s.fresh(snap, s.clock.Now()) {
		return snap, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, s.fail(fmt.Errorf("generate snapshot id: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.reloadTimeout)
	defer cancel()

	s.logger.Info("reloading incidents", "snapshot_id", id.String(), "cold", s.current.Load() == nil)
	start := s.clock.Now()

	incidents, err := s.loader.Load(ctx, id.String())
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	s.metrics.ReloadDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		return nil, s.fail(err)
	}

	snap := newSnapshot(id.String(), incidents, s.clock.Now())
	s.current.Store(snap)

	s.mu.Lock()
	s.lastFailure, s.lastErr = time.Time{}, nil
	s.mu.Unlock()

	s.metrics.Reloads.WithLabelValues("success").Inc()
	s.metrics.IncidentsLoaded.Set(float64(len(incidents)))
	s.logger.Info("incident snapshot published",
		"snapshot_id", snap.ID,
		"incidents", len(incidents),
		"duration", s.clock.Since(start),
	)
	return snap, nil
}

func (s *Store) fail(cause error) error {
	now := s.clock.Now()
	loadErr := &LoadError{Cause: cause, At: now}

	s.mu.Lock()
	s.lastFailure, s.lastErr = now, loadErr
	s.mu.Unlock()

	s.metrics.Reloads.WithLabelValues("failure").Inc()
	s.logger.Error("incident reload failed",
		"error", cause,
		"serving_previous", s.current.Load() != nil,
		"retry_after", s.retryInterval,
	)
	return loadErr
}
