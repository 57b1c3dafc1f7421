// Package repository persists the game state as a single JSON document.
package repository

import (
	"context"

	"github.com/okian/tally/internal/domain/count"
)

// SchemaVersion is written into every saved document.
// Version 1 documents carry no version field.
const SchemaVersion = 2

// Document is the persisted game: count, turn state and leaderboard.
type Document struct {
	Version int `json:"version"`
	count.Snapshot
}

// NewDocument wraps a snapshot in the current schema version.
func NewDocument(snap count.Snapshot) Document {
	return Document{Version: SchemaVersion, Snapshot: snap}
}

// Store provides full-document read/write access to the game state.
type Store interface {
	// Load returns the stored document.
	// Returns ErrNotFound if nothing was saved yet and ErrMalformed if the
	// stored bytes cannot be trusted.
	Load(ctx context.Context) (Document, error)

	// Save replaces the stored document.
	Save(ctx context.Context, doc Document) error
}
