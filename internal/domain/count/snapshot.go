package count

import (
	"fmt"

	"github.com/okian/tally/internal/domain/leaderboard"
)

// Snapshot is the persisted shape of the game.
type Snapshot struct {
	Count               int64                `json:"count"`
	LastUserID          *UserID              `json:"last_user_id"`
	IgnoreRepeatedUsers bool                 `json:"ignore_repeated_users"`
	Leaderboard         leaderboard.Snapshot `json:"leaderboard"`
}

// Snapshot returns a deep copy of the game state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Count:               s.count,
		IgnoreRepeatedUsers: s.ignoreRepeatedUsers,
		Leaderboard:         s.board.Snapshot(),
	}
	if s.lastUserID != nil {
		id := *s.lastUserID
		snap.LastUserID = &id
	}
	return snap
}

// FromSnapshot restores a game. Options apply on top of the stored state,
// e.g. the configured baseline.
func FromSnapshot(snap Snapshot, opts ...Option) (*State, error) {
	if snap.Count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegative, snap.Count)
	}
	board, err := leaderboard.FromSnapshot(snap.Leaderboard)
	if err != nil {
		return nil, fmt.Errorf("restore leaderboard: %w", err)
	}

	s := &State{
		board:               board,
		ignoreRepeatedUsers: snap.IgnoreRepeatedUsers,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.count = snap.Count
	if snap.LastUserID != nil {
		id := *snap.LastUserID
		s.lastUserID = &id
	}
	return s, nil
}
