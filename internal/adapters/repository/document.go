package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
)

// Keys every document must carry.
var requiredKeys = []string{"count", "last_user_id", "ignore_repeated_users"}

// Keys every leaderboard entry must carry.
var requiredEntryKeys = []string{
	"user_id", "highest_count", "last_highest_count",
	"times_counted", "mistakes_made", "rank", "last_rank",
}

// legacyDocument adds the version 1 record fields that predate the
// leaderboard.
type legacyDocument struct {
	Document
	HighestCount     *int64        `json:"highest_count"`
	HighestCountUser *model.UserID `json:"highest_count_user"`
}

// Encode renders a document as indented JSON.
func Encode(doc Document) ([]byte, error) {
	if doc.Version == 0 {
		doc.Version = SchemaVersion
	}
	if doc.Leaderboard.Entries == nil {
		doc.Leaderboard.Entries = []leaderboard.Entry{}
	}
	if doc.Leaderboard.UserIDs == nil {
		doc.Leaderboard.UserIDs = map[leaderboard.UserID]int{}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(raw, '\n'), nil
}

// Decode parses and validates a stored document, migrating older schema
// versions to SchemaVersion. Every failure wraps ErrMalformed.
func Decode(raw []byte) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if top == nil {
		return Document{}, fmt.Errorf("%w: document is null", ErrMalformed)
	}
	if err := requireKeys(top, requiredKeys...); err != nil {
		return Document{}, err
	}
	for _, k := range []string{"count", "ignore_repeated_users"} {
		if isNull(top[k]) {
			return Document{}, fmt.Errorf("%w: %q is null", ErrMalformed, k)
		}
	}
	if err := checkLeaderboardKeys(top["leaderboard"]); err != nil {
		return Document{}, err
	}

	var legacy legacyDocument
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	doc := legacy.Document
	if doc.Version > SchemaVersion {
		return Document{}, fmt.Errorf("%w: unsupported schema version %d", ErrMalformed, doc.Version)
	}

	// Validate the leaderboard the same way the game will restore it, and
	// fold in the pre-leaderboard record if present.
	board, err := leaderboard.FromSnapshot(doc.Leaderboard)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if legacy.HighestCount != nil && legacy.HighestCountUser != nil {
		board.RecordEntry(*legacy.HighestCountUser, *legacy.HighestCount)
	}
	doc.Leaderboard = board.Snapshot()
	doc.Version = SchemaVersion
	return doc, nil
}

// checkLeaderboardKeys validates an optional "leaderboard" object.
func checkLeaderboardKeys(raw json.RawMessage) error {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	var board map[string]json.RawMessage
	if err := json.Unmarshal(raw, &board); err != nil {
		return fmt.Errorf("%w: leaderboard: %v", ErrMalformed, err)
	}
	if err := requireKeys(board, "entries"); err != nil {
		return err
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(board["entries"], &entries); err != nil {
		return fmt.Errorf("%w: leaderboard entries: %v", ErrMalformed, err)
	}
	for i, e := range entries {
		if err := requireKeys(e, requiredEntryKeys...); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

func requireKeys(obj map[string]json.RawMessage, keys ...string) error {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return fmt.Errorf("%w: missing key %q", ErrMalformed, k)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
