package chat

import (
	"context"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
)

// LogMessenger writes effects to the log. It is the fallback when no
// webhook is configured.
type LogMessenger struct {
	log logger.Logger
}

// NewLogMessenger returns a messenger backed by log.
func NewLogMessenger(log logger.Logger) *LogMessenger {
	return &LogMessenger{log: log.Named("chat")}
}

// React implements Messenger.
func (m *LogMessenger) React(ctx context.Context, channelID model.ChannelID, messageID, symbol string) error {
	m.log.Info(ctx, "react",
		logger.Stringer("channel_id", channelID),
		logger.String("message_id", messageID),
		logger.String("symbol", symbol),
	)
	return nil
}

// Send implements Messenger.
func (m *LogMessenger) Send(ctx context.Context, channelID model.ChannelID, text string) error {
	m.log.Info(ctx, "send",
		logger.Stringer("channel_id", channelID),
		logger.String("text", text),
	)
	return nil
}
