// Package chat delivers the game's side effects (reactions and replies) to
// the chat platform.
package chat

import (
	"context"
	"fmt"

	"github.com/okian/tally/internal/domain/model"
)

// Reaction symbols.
const (
	SymbolSuccess      = "✅"
	SymbolFailure      = "❌"
	SymbolPersonalBest = "🎉"
	SymbolOvertook     = "🌟"
	SymbolRankUp       = "⭐"
)

// Messenger is the outbound side of the chat platform.
type Messenger interface {
	// React attaches symbol to a message.
	React(ctx context.Context, channelID model.ChannelID, messageID, symbol string) error

	// Send posts text to a channel.
	Send(ctx context.Context, channelID model.ChannelID, text string) error
}

// EffectKind distinguishes reactions from replies.
type EffectKind string

const (
	EffectReact EffectKind = "react"
	EffectSend  EffectKind = "send"
)

// Effect is one outbound action.
type Effect struct {
	Kind      EffectKind      `json:"kind"`
	ChannelID model.ChannelID `json:"channel_id,string"`
	MessageID string          `json:"message_id,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// Deliver replays the effect on m.
func (e Effect) Deliver(ctx context.Context, m Messenger) error {
	switch e.Kind {
	case EffectReact:
		return m.React(ctx, e.ChannelID, e.MessageID, e.Symbol)
	case EffectSend:
		return m.Send(ctx, e.ChannelID, e.Text)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEffect, e.Kind)
	}
}

// Mention renders a user mention.
func Mention(id model.UserID) string {
	return "<@" + id.String() + ">"
}
