// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/adapters/chat"
	"github.com/okian/tally/internal/adapters/mq/queue"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/types"
)

const (
	defaultLeaderboardSize = 10
	defaultMaxLimit        = 100
	adminTokenHeader       = "X-Admin-Token" //nolint:gosec // header name, not a credential
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MessageDependencies
	EventDependencies
	AdminDependencies
	LeaderboardDependencies
	RankDependencies
	CountDependencies
}

// MessageProcessor runs the message protocol for one message and delivers
// the feedback to m.
type MessageProcessor interface {
	Process(ctx context.Context, msg model.Message, m chat.Messenger) (service.Result, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	messagesHandler    *MessagesHandler
	eventsHandler      *EventsHandler
	adminHandler       *AdminHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	countHandler       *CountHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, processor MessageProcessor, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{
		leaderboardSize: defaultLeaderboardSize,
		maxLimit:        defaultMaxLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		messagesHandler:    NewMessagesHandler(deps, processor),
		eventsHandler:      NewEventsHandler(deps),
		adminHandler:       NewAdminHandler(deps, o.adminToken),
		leaderboardHandler: NewLeaderboardHandler(deps, o.leaderboardSize, o.maxLimit),
		rankHandler:        NewRankHandler(deps, o.adminToken),
		countHandler:       NewCountHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/messages", instrument("messages", s.messagesHandler.HandlePostMessage))
	mux.HandleFunc("/events", instrument("events", s.eventsHandler.HandlePostEvent))
	mux.HandleFunc("/admin/reset", instrument("admin_reset", s.adminHandler.HandleReset))
	mux.HandleFunc("/leaderboard", instrument("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("/rank/", instrument("rank", s.rankHandler.HandleRank))
	mux.HandleFunc("/count", instrument("count", s.countHandler.HandleGetCount))
}

// snowflake is a platform id. Clients may send it as a JSON number or, to
// stay clear of float precision, as a decimal string.
type snowflake int64

func (s *snowflake) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("invalid id %q", b)
	}
	*s = snowflake(v)
	return nil
}

// messageRequest mirrors the OpenAPI schema for POST /messages and
// POST /events.
type messageRequest struct {
	MessageID   string     `json:"message_id"`
	AuthorID    *snowflake `json:"author_id"`
	ChannelID   *snowflake `json:"channel_id"`
	Content     string     `json:"content"`
	AuthorIsBot bool       `json:"author_is_bot"`
}

func (m messageRequest) validate() error {
	switch {
	case m.AuthorID == nil:
		return errors.New("missing author_id")
	case m.ChannelID == nil:
		return errors.New("missing channel_id")
	}
	return nil
}

func decodeMessage(r *http.Request) (messageRequest, error) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return req, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return req, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors to HTTP responses. Anything
// unexpected is reported without internal detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotRanked):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrStopping), errors.Is(err, queue.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrUnavailable)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func parseUserID(raw string) (model.UserID, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid user id %q", ErrBadRequest, raw)
	}
	return model.UserID(v), nil
}
