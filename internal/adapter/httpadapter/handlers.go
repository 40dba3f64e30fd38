package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/store"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	headerSnapshotID = "X-Snapshot-ID"
	defaultTopN      = 10
	maxTopN          = 100
)

type handlers struct {
	incidents  IncidentService
	retryAfter time.Duration
	statsLoc   *time.Location
	logger     *slog.Logger
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type statsResponse struct {
	SnapshotID string    `json:"snapshotId"`
	LoadedAt   time.Time `json:"loadedAt"`
	domain.Summary
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.incidents.Query(r.Context(), f)
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	h.logger.Debug("incident query",
		"start", dateOnly(f.Start),
		"end", dateOnly(f.End),
		"crime_type", f.CrimeType,
		"category", f.Category,
		"results", len(res.Incidents),
		"snapshot_id", res.SnapshotID,
	)
	w.Header().Set(headerSnapshotID, res.SnapshotID)
	sharedobs.WriteJSON(w, http.StatusOK, res.Incidents)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	topN, err := parseTopN(q.Get("top"))
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.incidents.Query(r.Context(), f)
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	w.Header().Set(headerSnapshotID, res.SnapshotID)
	sharedobs.WriteJSON(w, http.StatusOK, statsResponse{
		SnapshotID: res.SnapshotID,
		LoadedAt:   res.LoadedAt,
		Summary:    domain.Summarize(res.Incidents, topN, h.statsLoc),
	})
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	inc, snapshotID, err := h.incidents.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		w.Header().Set(headerSnapshotID, snapshotID)
		sharedobs.WriteJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	w.Header().Set(headerSnapshotID, snapshotID)
	sharedobs.WriteJSON(w, http.StatusOK, inc)
}

// writeLoadError maps a store failure to a "data unavailable" response.
func (h *handlers) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())
	if !errors.Is(err, store.ErrLoadFailed) {
		// The caller went away or gave up while a reload was running.
		h.logger.Warn("incident request aborted", "error", err, "request_id", reqID)
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: store.ErrLoadFailed.Error(), Detail: err.Error()})
		return
	}

	h.logger.Error("incident data unavailable", "error", err, "request_id", reqID)
	if h.retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(h.retryAfter.Round(time.Second).Seconds())))
	}
	sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: store.ErrLoadFailed.Error(), Detail: err.Error()})
}
