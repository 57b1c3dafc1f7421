package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps the encoded document in memory. It runs the same
// codec as FileStore and is meant for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.Mutex
	raw   []byte
	saves int
	fail  error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreFrom returns a store preloaded with raw document bytes.
func NewMemoryStoreFrom(raw []byte) *MemoryStore {
	return &MemoryStore{raw: append([]byte(nil), raw...)}
}

// Load implements Store.Load.
func (m *MemoryStore) Load(_ context.Context) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw == nil {
		return Document{}, ErrNotFound
	}
	return Decode(m.raw)
}

// Save implements Store.Save.
func (m *MemoryStore) Save(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	raw, err := Encode(doc)
	if err != nil {
		return err
	}
	m.raw = raw
	m.saves++
	return nil
}

// FailSaves makes every following Save return err; nil restores saving.
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Saves returns how many saves succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Raw returns a copy of the stored bytes.
func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.raw...)
}
