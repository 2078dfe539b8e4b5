package api

import (
	"context"
	"net/http"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/ranking"
	"github.com/okian/covidboard/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	TopN(ctx context.Context, field model.Field, dir ranking.Direction, n int) (ranking.RankedView, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps   LeaderboardDependencies
	limits Limits
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, limits Limits) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:   deps,
		limits: limits,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?metric=&order=&limit=N requests
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	field, err := fieldParam(q, "metric", model.FieldCumulativeConfirmed)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	dir, err := ranking.ParseDirection(q.Get("order"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	n, err := limitParam(q, h.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	view, err := h.deps.TopN(r.Context(), field, dir, n)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewLeaderboard(view))
}
