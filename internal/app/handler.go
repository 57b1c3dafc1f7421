package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/tally/internal/adapters/chat"
	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Reasons a message is not treated as a submission.
const (
	IgnoredOtherChannel = "other_channel"
	IgnoredSelf         = "self"
	IgnoredBot          = "bot"
	IgnoredNotANumber   = "not_a_number"
)

// Result describes how a message was handled.
type Result struct {
	// Ignored is the reason the message never reached the game; empty when
	// it was submitted.
	Ignored string
	Outcome count.Outcome
}

// Handler runs the message protocol: filter, parse, submit, give feedback.
type Handler struct {
	svc       *Service
	channelID model.ChannelID
	botUserID int64
	messenger chat.Messenger
	logger    logger.Logger
}

// NewHandler returns a handler for the counting channel. Queued messages
// are answered through messenger.
func NewHandler(svc *Service, channelID model.ChannelID, messenger chat.Messenger, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:       svc,
		channelID: channelID,
		messenger: messenger,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get()
	}
	h.logger = h.logger.Named("handler")
	return h
}

// HandleMessage implements worker.Handler.
func (h *Handler) HandleMessage(ctx context.Context, msg model.Message) error { //nolint:gocritic // hugeParam
	_, err := h.Process(ctx, msg, h.messenger)
	return err
}

// Process handles one message and delivers its feedback to m. Delivery
// failures are returned joined; the submission itself stands.
func (h *Handler) Process(ctx context.Context, msg model.Message, m chat.Messenger) (Result, error) { //nolint:gocritic // hugeParam
	if reason := h.filter(msg); reason != "" {
		metrics.RecordIgnoredMessage(reason)
		h.logger.Debug(ctx, "ignoring message",
			logger.String("messageID", msg.MessageID),
			logger.String("reason", reason),
		)
		return Result{Ignored: reason}, nil
	}

	value, ok := count.ParseSubmission(msg.Content)
	if !ok {
		metrics.RecordIgnoredMessage(IgnoredNotANumber)
		return Result{Ignored: IgnoredNotANumber}, nil
	}

	out, err := h.svc.Submit(ctx, msg.AuthorID, value)
	if err != nil {
		return Result{}, fmt.Errorf("submit message %s: %w", msg.MessageID, err)
	}
	metrics.RecordMessageProcessed()

	var errs []error
	for _, e := range Feedback(msg, out) {
		if err := e.Deliver(ctx, m); err != nil {
			metrics.RecordMessengerEffect(string(e.Kind), "error")
			h.logger.Warn(ctx, "failed to deliver feedback",
				logger.String("messageID", msg.MessageID),
				logger.String("kind", string(e.Kind)),
				logger.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		metrics.RecordMessengerEffect(string(e.Kind), "ok")
	}
	return Result{Outcome: out}, errors.Join(errs...)
}

func (h *Handler) filter(msg model.Message) string { //nolint:gocritic // hugeParam
	switch {
	case msg.ChannelID != h.channelID:
		return IgnoredOtherChannel
	case h.botUserID != 0 && int64(msg.AuthorID) == h.botUserID:
		return IgnoredSelf
	case msg.AuthorIsBot:
		return IgnoredBot
	default:
		return ""
	}
}
