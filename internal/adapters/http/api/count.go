package api

import (
	"context"
	"net/http"

	"github.com/okian/tally/internal/domain/types"
)

// CountDependencies exposes the running count.
type CountDependencies interface {
	Status(ctx context.Context) (types.Status, error)
}

// CountHandler handles count requests.
type CountHandler struct {
	deps CountDependencies
}

// NewCountHandler creates a new count handler.
func NewCountHandler(deps CountDependencies) *CountHandler {
	return &CountHandler{deps: deps}
}

// HandleGetCount handles GET /count requests.
func (h *CountHandler) HandleGetCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	st, err := h.deps.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
