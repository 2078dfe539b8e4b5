package api

import (
	"context"
	"net/http"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/summary"
)

// SummaryDependencies defines the interface for aggregate queries.
type SummaryDependencies interface {
	Summary(ctx context.Context, field model.Field) (summary.Summary, error)
	Regions(ctx context.Context, field model.Field) ([]summary.Group, error)
}

// SummaryHandler handles summary and region requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleGetSummary handles GET /summary?field= requests.
// Without field only the entity count is returned.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	field, err := fieldParam(r.URL.Query(), "field", "")
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	s, err := h.deps.Summary(r.Context(), field)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type regionsResponse struct {
	Field  model.Field     `json:"field"`
	Groups []summary.Group `json:"groups"`
}

// HandleGetRegions handles GET /regions?field= requests.
func (h *SummaryHandler) HandleGetRegions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_regions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	field, err := fieldParam(r.URL.Query(), "field", model.FieldCumulativeConfirmed)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	groups, err := h.deps.Regions(r.Context(), field)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, regionsResponse{Field: field, Groups: groups})
}
