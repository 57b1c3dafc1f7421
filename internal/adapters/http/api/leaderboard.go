package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/model"
)

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Entry(ctx context.Context, userID model.UserID) (Entry, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps        LeaderboardDependencies
	defaultSize int
	maxLimit    int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, defaultSize, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:        deps,
		defaultSize: defaultSize,
		maxLimit:    maxLimit,
	}
}

type leaderboardResponse struct {
	Entries []Entry `json:"entries"`
	Caller  *Entry  `json:"caller,omitempty"`
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N[&user_id=U][&text=1]
// requests. user_id adds the caller's own entry; text=1 renders the board
// as chat text.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	n := h.defaultSize
	if limitStr := q.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
		return
	}

	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var caller *Entry
	if raw := q.Get("user_id"); raw != "" {
		id, err := parseUserID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		e, err := h.deps.Entry(r.Context(), id)
		switch {
		case err == nil:
			caller = &e
		case !errors.Is(err, service.ErrNotRanked):
			writeServiceError(w, err)
			return
		}
	}

	if b, _ := strconv.ParseBool(q.Get("text")); b {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(service.LeaderboardText(entries, caller)))
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries, Caller: caller})
}
