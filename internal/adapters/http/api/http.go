// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/covidboard/internal/app"
	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/ranking"
	"github.com/okian/covidboard/internal/domain/resolve"
	"github.com/okian/covidboard/internal/domain/summary"
	"github.com/okian/covidboard/internal/domain/timeslice"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	EntityDependencies
	TimeSliceDependencies
	SummaryDependencies
	TimelineDependencies
	ReloadDependencies
}

// Limits bounds the limit query parameter.
type Limits struct {
	// Default applies when limit is omitted.
	Default int
	// Max is the largest accepted limit.
	Max int
}

// DefaultLimits mirrors the config defaults.
func DefaultLimits() Limits { return Limits{Default: 20, Max: 200} }

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	entityHandler      *EntityHandler
	timeSliceHandler   *TimeSliceHandler
	summaryHandler     *SummaryHandler
	timelineHandler    *TimelineHandler
	reloadHandler      *ReloadHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, limits Limits) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, limits),
		entityHandler:      NewEntityHandler(deps),
		timeSliceHandler:   NewTimeSliceHandler(deps, limits),
		summaryHandler:     NewSummaryHandler(deps),
		timelineHandler:    NewTimelineHandler(deps),
		reloadHandler:      NewReloadHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/entity/", MetricsMiddleware(s.entityHandler.HandleGetEntity, "entity"))
	mux.HandleFunc("/timeslices", MetricsMiddleware(s.timeSliceHandler.HandleGetTimeSlices, "timeslices"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/regions", MetricsMiddleware(s.summaryHandler.HandleGetRegions, "regions"))
	mux.HandleFunc("/timeline", MetricsMiddleware(s.timelineHandler.HandleGetTimeline, "timeline"))
	mux.HandleFunc("/reload", MetricsMiddleware(s.reloadHandler.HandlePostReload, "reload"))
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Available []string `json:"available,omitempty"`
}

// writeJSON encodes before writing the header so an unencodable value
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Code: "encode_failed", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps errors from the service and domain packages to a
// status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	var nf *resolve.NotFoundError
	switch {
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:      "not_found",
			Message:   err.Error(),
			Available: nf.Available,
		})
	case errors.Is(err, ranking.ErrUnknownField),
		errors.Is(err, summary.ErrUnknownField),
		errors.Is(err, timeslice.ErrUnknownField),
		errors.Is(err, model.ErrUnknownField):
		writeError(w, http.StatusBadRequest, "unknown_field", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ranking.ErrInvalidLimit),
		errors.Is(err, ranking.ErrInvalidDirection):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, timeslice.ErrMissingValue):
		writeError(w, http.StatusUnprocessableEntity, "missing_value", err)
	case errors.Is(err, service.ErrSnapshotUnavailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
