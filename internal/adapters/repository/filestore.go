package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/okian/tally/pkg/metrics"
)

// Default file store configuration constants.
const (
	defaultFileMode = 0o600
	defaultDirMode  = 0o750
)

// FileStore keeps the document in one JSON file. Saves write and fsync a
// temporary file next to it and rename it into place, so readers only ever
// see a complete document.
type FileStore struct {
	mu       sync.Mutex
	path     string
	fileMode os.FileMode
}

// NewFileStore creates a store for the document at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:     path,
		fileMode: defaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Load implements Store.Load.
func (s *FileStore) Load(ctx context.Context) (Document, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPersistLatency("load", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	raw, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, ErrNotFound
		}
		metrics.RecordErrorByComponent("repository", "load_failed")
		return Document{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	doc, err := Decode(raw)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "malformed")
		return Document{}, fmt.Errorf("load %s: %w", s.path, err)
	}
	return doc, nil
}

// Save implements Store.Save.
func (s *FileStore) Save(ctx context.Context, doc Document) error {
	start := time.Now()
	defer func() {
		metrics.RecordPersistLatency("save", float64(time.Since(start).Milliseconds()))
	}()

	raw, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}
	if err := s.writeAtomic(raw); err != nil {
		metrics.RecordErrorByComponent("repository", "save_failed")
		return fmt.Errorf("%w: %s: %v", ErrSave, s.path, err)
	}
	return nil
}

// writeAtomic replaces the document with raw. Must be called with s.mu held.
func (s *FileStore) writeAtomic(raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), defaultDirMode); err != nil {
		return err
	}
	return renameio.WriteFile(s.path, raw, s.fileMode, renameio.IgnoreUmask())
}
