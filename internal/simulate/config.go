package simulate

import (
	"time"

	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/internal/domain/types"
)

// Config holds configuration for a simulated game.
type Config struct {
	BaseURL       string        // Base URL of the service
	ChannelID     int64         // Counting channel configured on the service
	Participants  int           // Number of simulated users
	Messages      int           // Number of distinct messages to post
	MistakeRate   float64       // Share of messages that deliberately break the count
	DuplicateRate float64       // Share of messages delivered twice
	Baseline      int64         // Reset baseline configured on the service
	TopN          int           // Number of leaderboard rows to fetch
	Workers       int           // Concurrent rank lookups
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Output file for the generated script
	LogFile       string        // Log file for simulator output
	Verbose       bool          // Enable verbose logging
}

// Message is the request body of POST /messages.
type Message struct {
	MessageID string `json:"message_id"`
	AuthorID  string `json:"author_id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

// Step is one scripted message and what the game must answer.
type Step struct {
	Message      Message           `json:"message"`
	Expected     count.OutcomeKind `json:"-"`
	ExpectedName string            `json:"expected"`
	NextExpected int64             `json:"next_expected"`
	Redeliver    bool              `json:"redeliver"`
}

// MessageResult is the response of POST /messages.
type MessageResult struct {
	MessageID    string   `json:"message_id"`
	Duplicate    bool     `json:"duplicate"`
	Ignored      string   `json:"ignored"`
	Outcome      string   `json:"outcome"`
	NextExpected int64    `json:"next_expected"`
	Reactions    []string `json:"reactions"`
	Messages     []string `json:"messages"`
}

// Entry is a leaderboard row as served by the API.
type Entry = types.Entry

// Status is the running count as served by GET /count.
type Status = types.Status

// LeaderboardResponse is the JSON body of GET /leaderboard.
type LeaderboardResponse struct {
	Entries []Entry `json:"entries"`
	Caller  *Entry  `json:"caller"`
}

// Stats holds simulation statistics.
type Stats struct {
	StepsGenerated     int
	MessagesSubmitted  int
	Accepted           int
	PersonalBests      int
	Mistakes           int
	Duplicates         int
	Mismatches         int
	Failed             int
	RankingsRetrieved  int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
