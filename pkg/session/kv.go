// Package session provides the key-value primitive the capture subsystem
// uses to hold stable session identifiers — the server-side analogue of
// browser session storage. Values are scoped to one shopper's browsing
// session and carry a bounded lifetime.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("session: key not found")

// KV is the minimal storage contract for session identifiers.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores a value. A zero ttl means the backend's default lifetime.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process KV. Entries expire lazily on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
