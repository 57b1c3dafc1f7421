// Package types contains common types used across the application
package types

import "github.com/okian/tally/internal/domain/model"

// Entry represents a leaderboard entry
type Entry struct {
	Rank             int          `json:"rank"`
	LastRank         int          `json:"last_rank"`
	UserID           model.UserID `json:"user_id"`
	HighestCount     int64        `json:"highest_count"`
	LastHighestCount int64        `json:"last_highest_count"`
	TimesCounted     int64        `json:"times_counted"`
	MistakesMade     int64        `json:"mistakes_made"`
}

// Status describes the running count as users see it.
type Status struct {
	Count               int64         `json:"count"`
	DisplayCount        int64         `json:"display_count"`
	NextExpected        int64         `json:"next_expected"`
	LastUserID          *model.UserID `json:"last_user_id"`
	IgnoreRepeatedUsers bool          `json:"ignore_repeated_users"`
	Participants        int           `json:"participants"`
}
