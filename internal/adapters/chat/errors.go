package chat

import "errors"

// Sentinel kinds for delivery errors.
var (
	ErrUnknownEffect = errors.New("unknown effect kind")
	ErrDelivery      = errors.New("chat delivery failed")
)
