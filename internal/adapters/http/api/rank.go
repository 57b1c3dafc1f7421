package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/tally/internal/domain/model"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Entry(ctx context.Context, userID model.UserID) (Entry, error)
	RemoveEntry(ctx context.Context, userID model.UserID) error
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps  RankDependencies
	token string
}

// NewRankHandler creates a new rank handler. Removing an entry requires
// token when it is set.
func NewRankHandler(deps RankDependencies, token string) *RankHandler {
	return &RankHandler{deps: deps, token: token}
}

// HandleRank handles GET and DELETE /rank/{user_id} requests.
func (h *RankHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /rank/
	path := strings.TrimPrefix(r.URL.Path, "/rank/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	id, err := parseUserID(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if r.Method == http.MethodDelete {
		if !authorized(r, h.token) {
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
			return
		}
		if err := h.deps.RemoveEntry(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	entry, err := h.deps.Entry(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
