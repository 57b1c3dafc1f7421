// Package count implements the counting game: the running tally, the
// turn-order rule and the hand-off of every accepted count to the
// leaderboard.
//
// A State is not safe for concurrent use. The application service wraps
// every call in one critical section together with persistence.
package count

import (
	"fmt"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
)

// UserID identifies a participant.
type UserID = model.UserID

// State owns the authoritative running count.
type State struct {
	count               int64
	lastUserID          *UserID
	ignoreRepeatedUsers bool
	baseline            int64
	board               *leaderboard.Leaderboard
}

// Option applies a configuration option to the State.
type Option func(*State)

// WithIgnoreRepeatedUsers lets the same user post consecutive numbers.
func WithIgnoreRepeatedUsers(ignore bool) Option {
	return func(s *State) {
		s.ignoreRepeatedUsers = ignore
	}
}

// WithBaseline sets the value the count returns to after a mistake.
func WithBaseline(baseline int64) Option {
	return func(s *State) {
		if baseline >= 0 {
			s.baseline = baseline
		}
	}
}

// WithLeaderboard attaches an existing leaderboard.
func WithLeaderboard(board *leaderboard.Leaderboard) Option {
	return func(s *State) {
		if board != nil {
			s.board = board
		}
	}
}

// New returns a fresh game at the baseline.
func New(opts ...Option) *State {
	s := &State{board: leaderboard.New()}
	for _, opt := range opts {
		opt(s)
	}
	s.count = s.baseline
	return s
}

// Leaderboard returns the owned leaderboard.
func (s *State) Leaderboard() *leaderboard.Leaderboard { return s.board }

// Count returns the last successfully reached value.
func (s *State) Count() int64 { return s.count }

// LastUserID returns who counted last, if anyone.
func (s *State) LastUserID() (UserID, bool) {
	if s.lastUserID == nil {
		return 0, false
	}
	return *s.lastUserID, true
}

// IgnoreRepeatedUsers reports whether the turn-order rule is disabled.
func (s *State) IgnoreRepeatedUsers() bool { return s.ignoreRepeatedUsers }

// SetIgnoreRepeatedUsers toggles the turn-order rule.
func (s *State) SetIgnoreRepeatedUsers(ignore bool) { s.ignoreRepeatedUsers = ignore }

// Baseline returns the configured reset target.
func (s *State) Baseline() int64 { return s.baseline }

// DisplayCount is the count as announced to users: 1 before the game starts.
func (s *State) DisplayCount() int64 {
	if s.count == 0 {
		return 1
	}
	return s.count
}

// NextExpected is the value the next submission must carry.
func (s *State) NextExpected() int64 { return s.count + 1 }

// PostResetExpected is the value expected after a mistake.
func (s *State) PostResetExpected() int64 { return s.baseline + 1 }

// CanUserSubmit reports whether userID may post the next number.
func (s *State) CanUserSubmit(userID UserID) bool {
	if s.ignoreRepeatedUsers {
		return true
	}
	return s.lastUserID == nil || *s.lastUserID != userID
}

// CanAccept reports whether value is the next number.
func (s *State) CanAccept(value int64) bool {
	return value == s.count+1
}

// Accept advances the count on behalf of userID and forwards it to the
// leaderboard. It returns true when the user beat their personal best.
//
// Callers must have checked CanUserSubmit and CanAccept; Accept panics
// otherwise.
func (s *State) Accept(value int64, userID UserID) bool {
	if !s.CanUserSubmit(userID) {
		panic(fmt.Errorf("%w: user %s cannot count twice in a row", ErrPrecondition, userID))
	}
	if !s.CanAccept(value) {
		panic(fmt.Errorf("%w: %d is not the next number (%d)", ErrPrecondition, value, s.NextExpected()))
	}

	s.count++
	id := userID
	s.lastUserID = &id
	return s.board.RecordEntry(userID, s.count)
}

// Reset returns the count to baseline and forgets the last user.
// Leaderboard history is kept.
func (s *State) Reset(baseline int64) {
	s.count = baseline
	s.lastUserID = nil
}

// Submit runs one submission through the game rules and reports what
// happened. This is the only mutating entry point used by the service.
func (s *State) Submit(userID UserID, value int64) Outcome {
	out := Outcome{
		UserID:       userID,
		Value:        value,
		DisplayCount: s.DisplayCount(),
	}

	if !s.CanUserSubmit(userID) {
		out.Kind = OutcomeRepeatedUser
		s.fail(userID)
		out.NextExpected = s.PostResetExpected()
		return out
	}

	if !s.CanAccept(value) {
		out.Kind = OutcomeWrongNumber
		s.fail(userID)
		out.NextExpected = s.PostResetExpected()
		return out
	}

	prevBest, _ := s.board.HighestCount(userID)
	prevRank, ranked := s.board.Rank(userID)

	if !s.Accept(value, userID) {
		out.Kind = OutcomeAccepted
		out.NextExpected = s.NextExpected()
		return out
	}

	out.Kind = OutcomePersonalBest
	out.NextExpected = s.NextExpected()
	out.PreviousBest = prevBest
	out.NewBest, _ = s.board.HighestCount(userID)
	out.NewRank, _ = s.board.Rank(userID)
	if ranked {
		out.PreviousRank = prevRank
		if out.NewRank < prevRank {
			out.RankImproved = true
			// The participant just passed now sits one place below.
			if e, ok := s.board.EntryByRank(out.NewRank + 1); ok {
				overtaken := e.UserID
				out.Overtaken = &overtaken
			}
		}
	}
	return out
}

// fail records the mistake and resets to the configured baseline.
func (s *State) fail(userID UserID) {
	s.board.RecordMistake(userID)
	s.Reset(s.baseline)
}
