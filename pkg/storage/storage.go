// Package storage defines the SessionStore protocol used to persist
// session state across process boundaries, and provides an in-memory
// implementation plus a Redis-backed one. Persistent storage semantics
// beyond "last write wins" are left to the implementer, consistent with
// this module's scope as the governance core rather than a storage layer.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/acartag7/callguard/pkg/session"
)

// SessionStore persists and retrieves session snapshots.
type SessionStore interface {
	Get(ctx context.Context, id string) (*session.Snapshot, error)
	Put(ctx context.Context, snap session.Snapshot) error
	Delete(ctx context.Context, id string) error
}

// ErrNotFound is returned by Get when no snapshot exists for the id.
var ErrNotFound = fmt.Errorf("storage: session not found")

// MemoryStore is an in-process SessionStore backed by a map, adequate for
// a single-process agent run or for tests.
type MemoryStore struct {
	mu    sync.Mutex
	store map[string]session.Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[string]session.Snapshot)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*session.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func (m *MemoryStore) Put(ctx context.Context, snap session.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[snap.ID] = snap
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}
