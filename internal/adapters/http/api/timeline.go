package api

import (
	"context"
	"net/http"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/types"
)

// TimelineDependencies defines the interface for the global timeline.
type TimelineDependencies interface {
	Timeline(ctx context.Context) (model.Timeline, error)
}

// TimelineHandler handles timeline requests.
type TimelineHandler struct {
	deps TimelineDependencies
}

// NewTimelineHandler creates a new timeline handler.
func NewTimelineHandler(deps TimelineDependencies) *TimelineHandler {
	return &TimelineHandler{deps: deps}
}

// HandleGetTimeline handles GET /timeline requests. Synthetic data is
// flagged in the body and in the X-Data-Provenance header.
func (h *TimelineHandler) HandleGetTimeline(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_timeline"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tl, err := h.deps.Timeline(r.Context())
	if err != nil {
		writeDomainError(w, WrapKind(op, ErrUnavailable, err))
		return
	}
	w.Header().Set("X-Data-Provenance", string(tl.Provenance))
	writeJSON(w, http.StatusOK, types.NewTimeline(tl))
}
