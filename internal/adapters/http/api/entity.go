package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/covidboard/internal/domain/resolve"
	"github.com/okian/covidboard/internal/domain/types"
)

// EntityDependencies defines the interface for entity lookups.
type EntityDependencies interface {
	Resolve(ctx context.Context, name string) (resolve.Match, error)
}

// EntityHandler handles entity requests.
type EntityHandler struct {
	deps EntityDependencies
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps EntityDependencies) *EntityHandler {
	return &EntityHandler{deps: deps}
}

// HandleGetEntity handles GET /entity/{name} requests.
// The name is matched loosely; a miss returns 404 with the known names.
func (h *EntityHandler) HandleGetEntity(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_entity"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/entity/")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	m, err := h.deps.Resolve(r.Context(), name)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewEntity(name, m))
}
