// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// UserID identifies a chat participant (a platform snowflake).
type UserID int64

// String renders the id in decimal form.
func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// ChannelID identifies a chat channel.
type ChannelID int64

// String renders the id in decimal form.
func (id ChannelID) String() string { return strconv.FormatInt(int64(id), 10) }

// Message is an inbound chat message delivered by the transport.
type Message struct {
	MessageID   string    // transport message id, used for idempotency
	AuthorID    UserID    // who posted the message
	AuthorIsBot bool      // set by the transport for bot accounts
	ChannelID   ChannelID // where it was posted
	Content     string    // raw text
	ReceivedAt  time.Time // ingress timestamp
}
