package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/tally/internal/app"
)

// AdminDependencies defines the interface for administrative operations.
type AdminDependencies interface {
	Reset(ctx context.Context, n int64) error
}

// AdminHandler handles administrative requests.
type AdminHandler struct {
	deps  AdminDependencies
	token string
}

// NewAdminHandler creates a new admin handler. An empty token disables the
// token check.
func NewAdminHandler(deps AdminDependencies, token string) *AdminHandler {
	return &AdminHandler{deps: deps, token: token}
}

type resetRequest struct {
	Count int64 `json:"count"`
}

type resetResponse struct {
	Count   int64  `json:"count"`
	Message string `json:"message"`
}

// HandleReset handles POST /admin/reset requests. The body is optional;
// without one the count is reset to 0.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !authorized(r, h.token) {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	if err := h.deps.Reset(r.Context(), req.Count); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Count: req.Count, Message: service.ResetText(req.Count)})
}

// authorized reports whether r carries the admin token.
func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	got := r.Header.Get(adminTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}
