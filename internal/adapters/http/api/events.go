package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/adapters/chat"
	"github.com/okian/tally/internal/domain/model"
)

// MessageDependencies defines what the synchronous ingress needs.
type MessageDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
}

// EventDependencies defines the interface for asynchronous ingestion.
type EventDependencies interface {
	Enqueue(ctx context.Context, msg model.Message) error
}

func toMessage(req messageRequest) model.Message {
	id := req.MessageID
	if id == "" {
		id = uuid.NewString()
	}
	return model.Message{
		MessageID:   id,
		AuthorID:    model.UserID(*req.AuthorID),
		AuthorIsBot: req.AuthorIsBot,
		ChannelID:   model.ChannelID(*req.ChannelID),
		Content:     req.Content,
		ReceivedAt:  time.Now(),
	}
}

// MessagesHandler applies a message synchronously and answers with the
// feedback it produced.
type MessagesHandler struct {
	deps      MessageDependencies
	processor MessageProcessor
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(deps MessageDependencies, processor MessageProcessor) *MessagesHandler {
	return &MessagesHandler{deps: deps, processor: processor}
}

type messageResponse struct {
	MessageID    string   `json:"message_id"`
	Duplicate    bool     `json:"duplicate"`
	Ignored      string   `json:"ignored,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
	NextExpected int64    `json:"next_expected,omitempty"`
	Reactions    []string `json:"reactions"`
	Messages     []string `json:"messages"`
}

// HandlePostMessage handles POST /messages requests.
func (h *MessagesHandler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeMessage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	msg := toMessage(req)

	resp := messageResponse{MessageID: msg.MessageID, Reactions: []string{}, Messages: []string{}}
	if h.deps.SeenAndRecord(r.Context(), msg.MessageID) {
		resp.Duplicate = true
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rec := chat.NewRecorder()
	res, err := h.processor.Process(r.Context(), msg, rec)
	if err != nil {
		h.deps.Unrecord(r.Context(), msg.MessageID)
		writeServiceError(w, err)
		return
	}

	resp.Ignored = res.Ignored
	if res.Ignored == "" {
		resp.Outcome = res.Outcome.Kind.String()
		resp.NextExpected = res.Outcome.NextExpected
	}
	if reactions := rec.Reactions(); reactions != nil {
		resp.Reactions = reactions
	}
	if messages := rec.Messages(); messages != nil {
		resp.Messages = messages
	}
	writeJSON(w, http.StatusOK, resp)
}

// EventsHandler queues messages for the workers.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeMessage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	msg := toMessage(req)

	// Idempotency and rollback of the seen mark on failure happen inside
	// Enqueue.
	err = h.deps.Enqueue(r.Context(), msg)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", MessageID: msg.MessageID})
	case errors.Is(err, service.ErrDuplicate):
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", MessageID: msg.MessageID, Duplicate: true})
	default:
		writeServiceError(w, err)
	}
}
