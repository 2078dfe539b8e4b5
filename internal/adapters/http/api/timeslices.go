package api

import (
	"context"
	"net/http"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/timeslice"
)

// TimeSliceDependencies defines the interface for time-slice views.
type TimeSliceDependencies interface {
	TimeSlices(ctx context.Context, rankField model.Field, n int, spec timeslice.Spec) ([]timeslice.Pair, error)
}

// TimeSliceHandler handles time-slice requests.
type TimeSliceHandler struct {
	deps   TimeSliceDependencies
	limits Limits
}

// NewTimeSliceHandler creates a new time-slice handler.
func NewTimeSliceHandler(deps TimeSliceDependencies, limits Limits) *TimeSliceHandler {
	return &TimeSliceHandler{deps: deps, limits: limits}
}

type timeSliceResponse struct {
	Metric string           `json:"metric"`
	Pairs  []timeslice.Pair `json:"pairs"`
}

// HandleGetTimeSlices handles GET /timeslices requests. Entities are the
// top limit by metric; each carries the before and after observations.
func (h *TimeSliceHandler) HandleGetTimeSlices(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_timeslices"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	rankField, err := fieldParam(q, "metric", model.FieldPeriodChange)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	n, err := limitParam(q, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	spec := timeslice.DefaultSpec()
	if spec.Before, err = fieldParam(q, "before", spec.Before); err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	if spec.After, err = fieldParam(q, "after", spec.After); err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	if v := q.Get("before_label"); v != "" {
		spec.BeforeLabel = v
	}
	if v := q.Get("after_label"); v != "" {
		spec.AfterLabel = v
	}

	pairs, err := h.deps.TimeSlices(r.Context(), rankField, n, spec)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, timeSliceResponse{Metric: rankField.String(), Pairs: pairs})
}
