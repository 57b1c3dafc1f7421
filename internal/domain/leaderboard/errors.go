package leaderboard

import "errors"

// Sentinel kinds for snapshot validation errors.
var (
	ErrDuplicateEntry = errors.New("duplicate leaderboard entry")
	ErrUnsorted       = errors.New("leaderboard entries out of order")
	ErrInvalidEntry   = errors.New("invalid leaderboard entry")
)
